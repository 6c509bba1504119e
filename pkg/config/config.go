// Package config loads optional per-project settings from .ai-guard.toml
// at the project root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the per-project configuration file.
const FileName = ".ai-guard.toml"

// Config holds project-level settings.
//
//	[extensions]
//	".zig" = "c"
//	".pyi" = "python"
type Config struct {
	// Extensions maps extra file extensions onto a registered extractor
	// family: "c", "python" or "treesitter". Built-in registrations apply
	// first; these override them.
	Extensions map[string]string `toml:"extensions"`
}

// Load reads the project config from dir. A missing file yields an empty
// config; a malformed file is an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{Extensions: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("load %s: %w", FileName, err)
	}
	if cfg.Extensions == nil {
		cfg.Extensions = map[string]string{}
	}

	for ext, family := range cfg.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return nil, fmt.Errorf("load %s: invalid extension %q (must start with a dot)", FileName, ext)
		}
		switch family {
		case "c", "python", "treesitter":
		default:
			return nil, fmt.Errorf("load %s: unknown extractor family %q for %s", FileName, family, ext)
		}
	}
	return &cfg, nil
}
