// Package worker provides a fixed-parallelism pool that turns compile
// requests into compiler invocations.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/buildforge/dircc/runner"
)

const maxWaiting = 512

// Config defines worker configuration
type Config struct {
	Runner         runner.Runner
	Parallelism    int
	CompileTimeout time.Duration
	OutputLimit    int64
	ExecObserver   func(Response)
}

// Worker defines interface for the compile pool
type Worker interface {
	Start()
	Submit(context.Context, *Request) <-chan Response
	Execute(context.Context, *Request) <-chan Response
	Shutdown()
}

type worker struct {
	runner      runner.Runner
	parallelism int

	compileTimeout time.Duration
	outputLimit    int64

	execObserver func(Response)

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	workCh    chan workRequest
	done      chan struct{}
}

type workRequest struct {
	*Request
	context.Context
	resultCh chan<- Response
}

// New creates new worker
func New(conf Config) Worker {
	r := conf.Runner
	if r == nil {
		r = runner.CmdRunner{}
	}
	parallelism := conf.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &worker{
		runner:         r,
		parallelism:    parallelism,
		compileTimeout: conf.CompileTimeout,
		outputLimit:    conf.OutputLimit,
		execObserver:   conf.ExecObserver,
	}
}

// Start starts worker loops with given parallelism
func (w *worker) Start() {
	w.startOnce.Do(func() {
		w.workCh = make(chan workRequest, maxWaiting)
		w.done = make(chan struct{})
		w.wg.Add(w.parallelism)
		for range w.parallelism {
			go w.loop()
		}
	})
}

// Submit submits a single request
func (w *worker) Submit(ctx context.Context, req *Request) <-chan Response {
	ch := make(chan Response, 1)
	w.workCh <- workRequest{
		Request:  req,
		Context:  ctx,
		resultCh: ch,
	}
	return ch
}

// Execute will execute the request in new goroutine (bypass the parallelism limit)
func (w *worker) Execute(ctx context.Context, req *Request) <-chan Response {
	ch := make(chan Response, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.workDoCompile(workRequest{
			Request:  req,
			Context:  ctx,
			resultCh: ch,
		})
	}()
	return ch
}

// Shutdown waits all worker to finish
func (w *worker) Shutdown() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

func (w *worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case req, ok := <-w.workCh:
			if !ok {
				return
			}
			w.workDoCompile(req)
		case <-w.done:
			return
		}
	}
}

func (w *worker) workDoCompile(req workRequest) {
	rt := Response{RequestID: req.RequestID}
	rt.Result = w.compile(req.Context, req.Request)
	if w.execObserver != nil {
		w.execObserver(rt)
	}
	req.resultCh <- rt
}

func (w *worker) compile(ctx context.Context, req *Request) Result {
	tc := req.Toolchain
	if tc == nil {
		return Result{
			Status: runner.StatusInvalid,
			Error:  "no toolchain selected",
		}
	}

	args, err := tc.Args(req.Source.Path, req.Output)
	if err != nil {
		return Result{
			Status:    runner.StatusInvalid,
			Error:     err.Error(),
			Toolchain: tc.Name,
		}
	}
	args = append(args, req.ExtraArgs...)

	res := w.runner.Run(ctx, &runner.Cmd{
		Args:        args,
		Env:         tc.Env,
		TimeLimit:   w.compileTimeout,
		OutputLimit: w.outputLimit,
	})
	return Result{
		Status:     res.Status,
		ExitStatus: res.ExitStatus,
		Time:       res.Time,
		Stdout:     string(res.Stdout),
		Stderr:     string(res.Stderr),
		Error:      res.Error,
		Toolchain:  tc.Name,
		Output:     req.Output,
	}
}
