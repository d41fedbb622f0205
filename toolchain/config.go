package toolchain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/elastic/go-ucfg/yaml"
	goyaml "github.com/goccy/go-yaml"
)

// Load reads the toolchain definition file. A missing file is not an error:
// the built-in defaults apply. Fields left empty in the file keep their
// default values.
func Load(path string) (*Set, error) {
	s := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("toolchain config %s: %w", path, err)
	}

	var file Set
	if err := goyaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("toolchain config %s: %w", path, err)
	}
	mergeToolchain(&s.C, file.C)
	mergeToolchain(&s.CPP, file.CPP)
	s.LegacyMatch = file.LegacyMatch
	return s, nil
}

func mergeToolchain(dst *Toolchain, src Toolchain) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Command != "" {
		dst.Command = src.Command
	}
	if len(src.Env) > 0 {
		dst.Env = src.Env
	}
	if len(src.Extensions) > 0 {
		dst.Extensions = src.Extensions
	}
}

// LoadExtraFlags reads the optional per-extension flag file, e.g.
//
//	flags:
//	  c: ["-std=c11"]
//	  cpp: ["-std=c++17"]
//
// Extensions are given without the dot. A missing file yields no extra flags.
func LoadExtraFlags(path string) (map[string][]string, error) {
	conf, err := yaml.NewConfigWithFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flags config %s: %w", path, err)
	}

	var flags struct {
		Flags map[string][]string `config:"flags"`
	}
	if err := conf.Unpack(&flags); err != nil {
		return nil, fmt.Errorf("flags config %s: %w", path, err)
	}
	return flags.Flags, nil
}
