package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/xsdpack"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file. Relative paths in the file
// resolve against the file's directory. Unknown keys are rejected.
func LoadConfig(path string) (*xsdpack.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &xsdpack.LocationNotFoundError{Location: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg xsdpack.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "failed to parse config %s: %v", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
