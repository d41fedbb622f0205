// Package builddir manages the output directory lifecycle: the directory is
// destroyed and recreated empty on every run, so no artifact survives
// between runs.
package builddir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the build output directory
type Dir struct {
	Root string
}

// Reset removes the directory tree if present and recreates it empty
func (d Dir) Reset() error {
	if err := os.RemoveAll(d.Root); err != nil {
		return fmt.Errorf("reset %s: %w", d.Root, err)
	}
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", d.Root, err)
	}
	return nil
}

// OutputPath returns the flat artifact path for a source file name
func (d Dir) OutputPath(name, suffix string) string {
	return filepath.Join(d.Root, name+suffix)
}
