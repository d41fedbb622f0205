package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewLocalStore(dir), dir
}

func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("binary"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLocalStoreAddGet(t *testing.T) {
	s, dir := newTestStore(t)
	p := writeArtifact(t, dir, "a.c.out")

	id, err := s.Add("a.c.out", p)
	if err != nil {
		t.Fatal(err)
	}
	if id != "a.c.out" {
		t.Errorf("id = %s, want a.c.out", id)
	}

	name, path := s.Get(id)
	if name != "a.c.out" || path != p {
		t.Errorf("get = (%s, %s), want (a.c.out, %s)", name, path, p)
	}
}

func TestLocalStoreAddOutsideDir(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Add("x", "/elsewhere/x"); err == nil {
		t.Error("expected error for path outside store dir")
	}
}

func TestLocalStoreRemove(t *testing.T) {
	s, dir := newTestStore(t)
	p := writeArtifact(t, dir, "a.c.out")
	if _, err := s.Add("a.c.out", p); err != nil {
		t.Fatal(err)
	}

	if !s.Remove("a.c.out") {
		t.Error("remove reported failure")
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("artifact file survived remove")
	}
	if s.Remove("a.c.out") {
		t.Error("second remove should report failure")
	}
}

func TestLocalStoreList(t *testing.T) {
	s, dir := newTestStore(t)
	for _, name := range []string{"a.c.out", "b.cpp.out"} {
		p := writeArtifact(t, dir, name)
		if _, err := s.Add(name, p); err != nil {
			t.Fatal(err)
		}
	}
	l := s.List()
	if len(l) != 2 {
		t.Fatalf("list has %d entries, want 2", len(l))
	}
	if l["a.c.out"] != "a.c.out" {
		t.Errorf("list[a.c.out] = %s", l["a.c.out"])
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if name, path := s.Get("nope"); name != "" || path != "" {
		t.Errorf("get missing = (%s, %s), want empty", name, path)
	}
}
