package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/buildforge/dircc/artifact"
	"github.com/buildforge/dircc/builddir"
	"github.com/buildforge/dircc/runner"
	"github.com/buildforge/dircc/toolchain"
	"github.com/buildforge/dircc/worker"
)

// fakeRunner pretends to be a compiler: it creates the output file for
// sources it likes and fails the rest
type fakeRunner struct {
	failNames map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, c *runner.Cmd) runner.Result {
	// command shape is <compiler> -O2 <src> -o <out>
	src := filepath.Base(c.Args[2])
	out := c.Args[4]
	if f.failNames[src] {
		return runner.Result{
			Status:     runner.StatusNonzeroExitStatus,
			ExitStatus: 1,
			Stderr:     []byte(src + ": syntax error"),
		}
	}
	if err := os.WriteFile(out, []byte("#!binary"), 0o755); err != nil {
		return runner.Result{Status: runner.StatusFileError, Error: err.Error()}
	}
	return runner.Result{Status: runner.StatusSucceeded}
}

func newTestBuilder(t *testing.T, srcDir, buildRoot string, fail map[string]bool, echo *bytes.Buffer) (*Builder, worker.Worker, artifact.Store) {
	t.Helper()
	w := worker.New(worker.Config{Runner: &fakeRunner{failNames: fail}, Parallelism: 1})
	w.Start()
	t.Cleanup(w.Shutdown)
	store := artifact.NewLocalStore(buildRoot)
	b := New(Config{
		SrcDir:     srcDir,
		BuildDir:   builddir.Dir{Root: buildRoot},
		Toolchains: toolchain.Default(),
		Worker:     w,
		Store:      store,
		Echo:       echo,
		Logger:     zaptest.NewLogger(t),
	})
	return b, w, store
}

func writeSources(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("int main(){}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunCompilesEveryRegularFile(t *testing.T) {
	srcDir := t.TempDir()
	buildRoot := filepath.Join(t.TempDir(), "build")
	writeSources(t, srcDir, "a.c", "b.cpp", "notes.txt")
	if err := os.Mkdir(filepath.Join(srcDir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	var echo bytes.Buffer
	b, _, store := newTestBuilder(t, srcDir, buildRoot, nil, &echo)

	sum, err := b.Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 3 || sum.Succeeded != 3 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", sum.ExitCode())
	}

	for _, name := range []string{"a.c.out", "b.cpp.out", "notes.txt.out"} {
		if _, err := os.Stat(filepath.Join(buildRoot, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	// subdirectory produced no artifact and no result
	for _, r := range sum.Results {
		if r.Name == "sub" {
			t.Error("subdirectory showed up in results")
		}
	}

	wantEcho := "a.c\nb.cpp\nnotes.txt\n"
	if echo.String() != wantEcho {
		t.Errorf("echo = %q, want %q", echo.String(), wantEcho)
	}

	if l := store.List(); len(l) != 3 {
		t.Errorf("artifact store has %d entries, want 3", len(l))
	}
}

func TestRunToolchainSelection(t *testing.T) {
	srcDir := t.TempDir()
	writeSources(t, srcDir, "a.c", "b.cpp")

	var echo bytes.Buffer
	b, _, _ := newTestBuilder(t, srcDir, filepath.Join(t.TempDir(), "build"), nil, &echo)

	sum, err := b.Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]string{}
	for _, r := range sum.Results {
		byName[r.Name] = r.Toolchain
	}
	if byName["a.c"] != "gcc" || byName["b.cpp"] != "g++" {
		t.Errorf("toolchains = %v", byName)
	}
}

func TestRunLegacyMatch(t *testing.T) {
	srcDir := t.TempDir()
	writeSources(t, srcDir, "foo.cpp")

	var echo bytes.Buffer
	b, _, _ := newTestBuilder(t, srcDir, filepath.Join(t.TempDir(), "build"), nil, &echo)
	b.conf.Toolchains.LegacyMatch = true

	sum, err := b.Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if got := sum.Results[0].Toolchain; got != "gcc" {
		t.Errorf("legacy toolchain for foo.cpp = %s, want gcc", got)
	}
}

func TestRunKeepsGoingOnFailure(t *testing.T) {
	srcDir := t.TempDir()
	buildRoot := filepath.Join(t.TempDir(), "build")
	writeSources(t, srcDir, "bad.c", "good.c")

	var echo bytes.Buffer
	b, _, _ := newTestBuilder(t, srcDir, buildRoot, map[string]bool{"bad.c": true}, &echo)

	sum, err := b.Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 1 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", sum.ExitCode())
	}
	if _, err := os.Stat(filepath.Join(buildRoot, "good.c.out")); err != nil {
		t.Error("good.c should still have compiled")
	}
	if _, err := os.Stat(filepath.Join(buildRoot, "bad.c.out")); !os.IsNotExist(err) {
		t.Error("bad.c should have no artifact")
	}
	var bad FileResult
	for _, r := range sum.Results {
		if r.Name == "bad.c" {
			bad = r
		}
	}
	if !strings.Contains(bad.Stderr, "syntax error") {
		t.Errorf("bad.c stderr = %q", bad.Stderr)
	}
}

func TestRunTwiceLeavesNoResidue(t *testing.T) {
	srcDir := t.TempDir()
	buildRoot := filepath.Join(t.TempDir(), "build")
	writeSources(t, srcDir, "a.c", "b.c")

	var echo bytes.Buffer
	b, _, _ := newTestBuilder(t, srcDir, buildRoot, nil, &echo)

	if _, err := b.Run(context.TODO()); err != nil {
		t.Fatal(err)
	}
	// drop a source, rerun: its artifact must disappear
	if err := os.Remove(filepath.Join(srcDir, "b.c")); err != nil {
		t.Fatal(err)
	}
	sum, err := b.Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(buildRoot, "b.c.out")); !os.IsNotExist(err) {
		t.Error("stale artifact b.c.out survived rerun")
	}
}
