// Package scan enumerates the source files of a build run.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source is a regular file in the source directory
type Source struct {
	Name string
	Path string
}

// Sources returns the regular files directly under dir, sorted by name.
// Subdirectories and other non-regular entries are skipped silently.
func Sources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	rt := make([]Source, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		rt = append(rt, Source{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	return rt, nil
}
