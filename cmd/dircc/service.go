package main

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/buildforge/dircc/artifact"
	"github.com/buildforge/dircc/builddir"
	"github.com/buildforge/dircc/builder"
	"github.com/buildforge/dircc/cmd/dircc/config"
	"github.com/buildforge/dircc/cmd/dircc/model"
	"github.com/buildforge/dircc/toolchain"
	"github.com/buildforge/dircc/worker"
)

// buildService runs builds for the HTTP surface. All builds share one build
// directory, so they are serialized.
type buildService struct {
	mu sync.Mutex

	conf       *config.Config
	toolchains *toolchain.Set
	work       worker.Worker
	store      artifact.Store
	logger     *zap.Logger
}

func newBuildService(conf *config.Config, tcs *toolchain.Set, work worker.Worker, store artifact.Store, logger *zap.Logger) *buildService {
	return &buildService{
		conf:       conf,
		toolchains: tcs,
		work:       work,
		store:      store,
		logger:     logger,
	}
}

func (s *buildService) Build(ctx context.Context, req *model.BuildRequest, observe func(builder.FileResult)) (*builder.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tcs := *s.toolchains
	if req.LegacyMatch != nil {
		tcs.LegacyMatch = *req.LegacyMatch
	}
	srcDir := s.conf.SrcDir
	if req.SrcDir != "" {
		srcDir = req.SrcDir
	}

	b := builder.New(builder.Config{
		SrcDir:       srcDir,
		BuildDir:     builddir.Dir{Root: s.conf.BuildDir},
		OutputSuffix: s.conf.OutputSuffix,
		Toolchains:   &tcs,
		Worker:       s.work,
		Store:        s.store,
		Echo:         io.Discard, // serve mode reports through results, not stdout
		Logger:       s.logger,
		ExtraArgs:    req.ExtraArgs,
		Observer:     observe,
	})
	return b.Run(ctx)
}
