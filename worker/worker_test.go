package worker

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/buildforge/dircc/runner"
	"github.com/buildforge/dircc/scan"
	"github.com/buildforge/dircc/toolchain"
)

// stubRunner records commands instead of spawning processes
type stubRunner struct {
	mu     sync.Mutex
	args   [][]string
	result runner.Result
}

func (s *stubRunner) Run(_ context.Context, c *runner.Cmd) runner.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = append(s.args, c.Args)
	return s.result
}

func newTestWorker(r runner.Runner, parallelism int) Worker {
	return New(Config{Runner: r, Parallelism: parallelism})
}

func TestWorkerCompile(t *testing.T) {
	stub := &stubRunner{result: runner.Result{Status: runner.StatusSucceeded}}
	w := newTestWorker(stub, 1)
	w.Start()
	defer w.Shutdown()

	tc := toolchain.Default().C
	rt := <-w.Submit(context.TODO(), &Request{
		RequestID: "0-a.c",
		Source:    scan.Source{Name: "a.c", Path: "src/a.c"},
		Toolchain: &tc,
		ExtraArgs: []string{"-std=c11"},
		Output:    "build/a.c.out",
	})

	if rt.RequestID != "0-a.c" {
		t.Errorf("request id = %s", rt.RequestID)
	}
	if rt.Result.Status != runner.StatusSucceeded {
		t.Fatalf("status = %v", rt.Result.Status)
	}
	if rt.Result.Toolchain != "gcc" || rt.Result.Output != "build/a.c.out" {
		t.Errorf("result = %+v", rt.Result)
	}

	want := "gcc -O2 src/a.c -o build/a.c.out -std=c11"
	if got := strings.Join(stub.args[0], " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestWorkerNoToolchain(t *testing.T) {
	w := newTestWorker(&stubRunner{}, 1)
	w.Start()
	defer w.Shutdown()

	rt := <-w.Submit(context.TODO(), &Request{RequestID: "x"})
	if rt.Result.Status != runner.StatusInvalid {
		t.Errorf("status = %v, want Invalid", rt.Result.Status)
	}
}

func TestWorkerObserver(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	stub := &stubRunner{result: runner.Result{Status: runner.StatusSucceeded}}
	w := New(Config{
		Runner:      stub,
		Parallelism: 2,
		ExecObserver: func(r Response) {
			mu.Lock()
			seen = append(seen, r.RequestID)
			mu.Unlock()
		},
	})
	w.Start()

	tc := toolchain.Default().C
	chs := make([]<-chan Response, 0, 4)
	for _, id := range []string{"a", "b", "c", "d"} {
		chs = append(chs, w.Submit(context.TODO(), &Request{
			RequestID: id,
			Source:    scan.Source{Name: id + ".c", Path: id + ".c"},
			Toolchain: &tc,
			Output:    id + ".out",
		}))
	}
	for _, ch := range chs {
		<-ch
	}
	w.Shutdown()

	if len(seen) != 4 {
		t.Errorf("observer saw %d responses, want 4", len(seen))
	}
}

func TestWorkerExecuteBypassesQueue(t *testing.T) {
	stub := &stubRunner{result: runner.Result{Status: runner.StatusSucceeded}}
	w := newTestWorker(stub, 1)
	w.Start()

	tc := toolchain.Default().C
	rt := <-w.Execute(context.TODO(), &Request{
		RequestID: "direct",
		Source:    scan.Source{Name: "a.c", Path: "a.c"},
		Toolchain: &tc,
		Output:    "a.out",
	})
	w.Shutdown()

	if rt.Result.Status != runner.StatusSucceeded {
		t.Errorf("status = %v", rt.Result.Status)
	}
}
