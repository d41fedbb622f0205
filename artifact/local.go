package artifact

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
)

type localStore struct {
	dir  string            // build directory holding the artifacts
	name map[string]string // id to display name mapping
	mu   sync.RWMutex
}

// NewLocalStore creates an artifact store over the build directory. Artifact
// ids are the file base names, which the flat output layout keeps unique.
func NewLocalStore(dir string) Store {
	return &localStore{
		dir:  filepath.Clean(dir),
		name: make(map[string]string),
	}
}

func (s *localStore) Add(name, p string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == filepath.Dir(p) {
		id := filepath.Base(p)
		s.name[id] = name
		return id, nil
	}
	return "", fmt.Errorf("add: %s does not have prefix %s", p, s.dir)
}

func (s *localStore) Get(id string) (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := path.Join(s.dir, id)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return "", ""
	}
	name, ok := s.name[id]
	if !ok {
		name = id
	}
	return name, p
}

func (s *localStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.name, id)
	p := path.Join(s.dir, id)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return false
	}
	os.Remove(p)
	return true
}

func (s *localStore) List() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fi, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	names := make(map[string]string, len(fi))
	for _, f := range fi {
		names[f.Name()] = s.name[f.Name()]
	}
	return names
}
