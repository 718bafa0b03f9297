// Package toml loads TOML configuration files.
package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/xsdpack"
)

// LoadConfig reads a TOML configuration file. Relative paths in the file
// resolve against the file's directory. Unknown keys are rejected.
func LoadConfig(path string) (*xsdpack.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &xsdpack.LocationNotFoundError{Location: path, Err: err}
	}

	var cfg xsdpack.Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "failed to parse config %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	cfg.ResolvePaths(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
