package builddir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResetRemovesResidue(t *testing.T) {
	root := filepath.Join(t.TempDir(), "build")
	d := Dir{Root: root}
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(root, "stale.out")
	if err := os.WriteFile(stale, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("residue survived reset")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("build dir not empty after reset: %d entries", len(entries))
	}
}

func TestResetIdempotent(t *testing.T) {
	d := Dir{Root: filepath.Join(t.TempDir(), "build")}
	for range 3 {
		if err := d.Reset(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	d := Dir{Root: "build"}
	if got := d.OutputPath("a.c", ".out"); got != filepath.Join("build", "a.c.out") {
		t.Errorf("output path = %s", got)
	}
}
