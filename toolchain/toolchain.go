// Package toolchain defines the C / C++ compiler commands and the rule that
// picks one of them for a given source file name.
package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// legacyPattern is the literal text the original tool compared file names
// against. It is not a glob: only a file literally named `*.cpp` matches.
const legacyPattern = "*.cpp"

// Toolchain defines a single compiler command template
type Toolchain struct {
	Name       string   `yaml:"name"`
	Command    string   `yaml:"command"`
	Env        []string `yaml:"env"`
	Extensions []string `yaml:"extensions"`
}

// Args expands the command template for one source / output pair.
// The template is tokenized with shlex, then every {src} and {out}
// occurrence is substituted.
func (t *Toolchain) Args(src, out string) ([]string, error) {
	if !strings.Contains(t.Command, "{src}") || !strings.Contains(t.Command, "{out}") {
		return nil, fmt.Errorf("toolchain %s: command must reference {src} and {out}", t.Name)
	}
	parts, err := shlex.Split(t.Command)
	if err != nil {
		return nil, fmt.Errorf("toolchain %s: parse command: %w", t.Name, err)
	}
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, "{src}", src)
		p = strings.ReplaceAll(p, "{out}", out)
		args = append(args, p)
	}
	return args, nil
}

// Matches reports whether the file name carries one of the toolchain
// extensions
func (t *Toolchain) Matches(name string) bool {
	for _, ext := range t.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Set holds the toolchain pair and the selection mode
type Set struct {
	C   Toolchain `yaml:"c"`
	CPP Toolchain `yaml:"cpp"`

	// LegacyMatch reproduces the original selection defect: the file name
	// is compared for string equality against the literal text `*.cpp`
	LegacyMatch bool `yaml:"legacyMatch"`

	// ExtraFlags maps a file extension (without the dot) to additional
	// compiler arguments
	ExtraFlags map[string][]string `yaml:"-"`
}

// Default returns the built-in gcc / g++ pair with optimization level 2
func Default() *Set {
	return &Set{
		C: Toolchain{
			Name:    "gcc",
			Command: "gcc -O2 {src} -o {out}",
		},
		CPP: Toolchain{
			Name:       "g++",
			Command:    "g++ -O2 {src} -o {out}",
			Extensions: []string{".cpp"},
		},
	}
}

// Select picks the compiler for a file name. Every file compiles; files not
// recognized as C++ fall back to the C toolchain.
func (s *Set) Select(name string) *Toolchain {
	if s.LegacyMatch {
		if name == legacyPattern {
			return &s.CPP
		}
		return &s.C
	}
	if s.CPP.Matches(name) {
		return &s.CPP
	}
	return &s.C
}

// Extra returns the configured additional arguments for the file extension
func (s *Set) Extra(name string) []string {
	if len(s.ExtraFlags) == 0 {
		return nil
	}
	return s.ExtraFlags[strings.TrimPrefix(filepath.Ext(name), ".")]
}
