// Package runner spawns compiler processes on the host and converts their
// outcome into structured results.
package runner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"time"
)

const defaultOutputLimit = 256 << 10 // 256k of captured diagnostics per stream

// Cmd defines a single compiler invocation
type Cmd struct {
	Args []string
	Env  []string
	Dir  string

	TimeLimit   time.Duration
	OutputLimit int64
}

// Result defines the outcome of a single compiler invocation
type Result struct {
	Status     Status
	ExitStatus int
	Time       time.Duration
	Stdout     []byte
	Stderr     []byte
	Error      string
}

// Runner defines interface to run a single compiler command
type Runner interface {
	Run(context.Context, *Cmd) Result
}

// CmdRunner runs commands with os/exec on the host toolchain
type CmdRunner struct{}

var _ Runner = CmdRunner{}

// Run spawns the command and waits for completion or cancellation
func (CmdRunner) Run(ctx context.Context, c *Cmd) Result {
	if len(c.Args) == 0 {
		return Result{Status: StatusInvalid, Error: "empty command"}
	}

	rctx := ctx
	if c.TimeLimit > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, c.TimeLimit)
		defer cancel()
	}

	limit := c.OutputLimit
	if limit <= 0 {
		limit = defaultOutputLimit
	}
	stdout := limitBuffer{max: limit}
	stderr := limitBuffer{max: limit}

	cmd := exec.CommandContext(rctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	rt := Result{
		Time:   time.Since(start),
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	rt.Status, rt.ExitStatus = convertError(rctx, err)
	if err != nil {
		rt.Error = err.Error()
	}
	return rt
}

func convertError(ctx context.Context, err error) (Status, int) {
	if err == nil {
		return StatusSucceeded, 0
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StatusTimeLimitExceeded, -1
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return StatusNonzeroExitStatus, code
		}
		return StatusSignalled, -1
	}

	var pe *fs.PathError
	if errors.As(err, &pe) {
		return StatusFileError, -1
	}
	// exec.Error (compiler not resolvable on PATH) and everything else
	return StatusInternalError, -1
}

// limitBuffer keeps the head of the stream and drops the rest once max is
// reached, so a chatty compiler cannot exhaust memory
type limitBuffer struct {
	buf       []byte
	max       int64
	truncated bool
}

func (b *limitBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if remain := b.max - int64(len(b.buf)); remain > 0 {
		if int64(n) > remain {
			p = p[:remain]
			b.truncated = true
		}
		b.buf = append(b.buf, p...)
	} else if n > 0 {
		b.truncated = true
	}
	return n, nil
}

func (b *limitBuffer) Bytes() []byte {
	if b.truncated {
		return append(b.buf, []byte("...")...)
	}
	return b.buf
}
