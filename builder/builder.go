// Package builder runs one build pass: reset the build directory, compile
// every regular file in the source directory, and aggregate the results.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/buildforge/dircc/artifact"
	"github.com/buildforge/dircc/builddir"
	"github.com/buildforge/dircc/runner"
	"github.com/buildforge/dircc/scan"
	"github.com/buildforge/dircc/toolchain"
	"github.com/buildforge/dircc/worker"
)

const defaultOutputSuffix = ".out"

// Config defines builder configuration
type Config struct {
	SrcDir       string
	BuildDir     builddir.Dir
	OutputSuffix string
	Toolchains   *toolchain.Set
	Worker       worker.Worker
	Store        artifact.Store // optional
	Echo         io.Writer      // per-file name echo, stdout if nil
	Logger       *zap.Logger

	// ExtraArgs are appended to every compiler invocation of this run
	ExtraArgs []string

	// Observer receives each file result as it is collected, in input order
	Observer func(FileResult)
}

// FileResult is the outcome of compiling one source file
type FileResult struct {
	Name       string
	Output     string
	Toolchain  string
	Status     runner.Status
	ExitStatus int
	Time       time.Duration
	Stderr     string
	Error      string
	ArtifactID string
}

// Succeeded reports whether the compilation produced a binary
func (r FileResult) Succeeded() bool {
	return r.Status == runner.StatusSucceeded
}

// Summary aggregates a full build run
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Results   []FileResult
}

// ExitCode is non-zero when any file failed to compile
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Builder compiles a directory of sources
type Builder struct {
	conf   Config
	echo   io.Writer
	logger *zap.Logger
	suffix string
}

// New creates a builder from config, applying defaults
func New(conf Config) *Builder {
	b := &Builder{
		conf:   conf,
		echo:   conf.Echo,
		logger: conf.Logger,
		suffix: conf.OutputSuffix,
	}
	if b.echo == nil {
		b.echo = os.Stdout
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.suffix == "" {
		b.suffix = defaultOutputSuffix
	}
	return b
}

// Run executes one build pass. Per-file compile failures are collected, not
// propagated; the returned error covers only the run itself (build dir reset,
// scan, cancellation).
func (b *Builder) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := b.conf.BuildDir.Reset(); err != nil {
		return nil, err
	}
	srcs, err := scan.Sources(b.conf.SrcDir)
	if err != nil {
		return nil, err
	}

	// echo and submit everything up front, then collect in input order
	chs := make([]<-chan worker.Response, len(srcs))
	for i, src := range srcs {
		fmt.Fprintln(b.echo, src.Name)
		tc := b.conf.Toolchains.Select(src.Name)
		chs[i] = b.conf.Worker.Submit(ctx, &worker.Request{
			RequestID: fmt.Sprintf("%d-%s", i, src.Name),
			Source:    src,
			Toolchain: tc,
			ExtraArgs: slices.Concat(b.conf.Toolchains.Extra(src.Name), b.conf.ExtraArgs),
			Output:    b.conf.BuildDir.OutputPath(src.Name, b.suffix),
		})
	}

	sum := &Summary{
		Total:   len(srcs),
		Results: make([]FileResult, 0, len(srcs)),
	}
	for i, ch := range chs {
		rt := <-ch
		fr := b.convertResult(srcs[i], rt.Result)
		if fr.Succeeded() {
			sum.Succeeded++
			b.logger.Debug("compiled",
				zap.String("file", fr.Name),
				zap.String("toolchain", fr.Toolchain),
				zap.Duration("time", fr.Time))
		} else {
			sum.Failed++
			b.logger.Warn("compile failed",
				zap.String("file", fr.Name),
				zap.String("status", fr.Status.String()),
				zap.Int("exitStatus", fr.ExitStatus),
				zap.String("error", fr.Error))
		}
		sum.Results = append(sum.Results, fr)
		if b.conf.Observer != nil {
			b.conf.Observer(fr)
		}
	}
	sum.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (b *Builder) convertResult(src scan.Source, res worker.Result) FileResult {
	fr := FileResult{
		Name:       src.Name,
		Output:     res.Output,
		Toolchain:  res.Toolchain,
		Status:     res.Status,
		ExitStatus: res.ExitStatus,
		Time:       res.Time,
		Stderr:     res.Stderr,
		Error:      res.Error,
	}
	if !fr.Succeeded() || b.conf.Store == nil {
		return fr
	}
	id, err := b.conf.Store.Add(src.Name+b.suffix, res.Output)
	if err != nil {
		b.logger.Warn("artifact register failed",
			zap.String("file", src.Name), zap.Error(err))
		return fr
	}
	fr.ArtifactID = id
	return fr
}
