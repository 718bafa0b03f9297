package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/resolve"
	"github.com/fwojciec/xsdpack/toml"
	"github.com/fwojciec/xsdpack/yaml"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}
	c.apply(cfg)

	if cfg.Output.Path == "" {
		err := xsdpack.Errorf(xsdpack.EINVALID, "no output path: set output.path or pass --output")
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	repo, err := resolve.NewRepository(*cfg,
		resolve.WithLoader(deps.Loader),
		resolve.WithParser(deps.Parser),
		resolve.WithLogger(deps.Logger),
		resolve.WithConcurrency(c.Concurrency),
	)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	opts := cfg.PackageOptions()
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	pkg, err := deps.Packer.Write(deps.Ctx, repo, cfg.Output.Path, opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	for _, f := range repo.LoadFailures() {
		if f.From != "" {
			fmt.Fprintf(deps.Stderr, "warning: failed to load %s (from %s): %v\n", f.Location, f.From, f.Err)
		} else {
			fmt.Fprintf(deps.Stderr, "warning: failed to load %s: %v\n", f.Location, f.Err)
		}
	}
	for _, f := range pkg.Failures {
		fmt.Fprintf(deps.Stderr, "warning: %v\n", f.Err())
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s (%s, %s, %s)\n", cfg.Output.Path, opts.Format, pkg.XSDMode, pkg.ResolutionMode)
	if pkg.ResolutionMode == xsdpack.ResolutionResolved {
		stats := repo.Statistics()
		fmt.Fprintf(deps.Stdout, "  %d schemas, %d types, %d namespaces\n", stats.Schemas, stats.Types, stats.Namespaces)
	} else {
		fmt.Fprintf(deps.Stdout, "  %d schemas\n", len(pkg.Documents))
	}

	if c.Strict && len(pkg.Failures) > 0 {
		return xsdpack.Errorf(xsdpack.EUNRESOLVED, "%d unresolved references", len(pkg.Failures))
	}
	return nil
}

// apply overrides configuration values with the flags that were set.
func (c *BuildCmd) apply(cfg *xsdpack.Config) {
	if c.Output != "" {
		cfg.Output.Path = c.Output
	}
	if c.Format != "" {
		cfg.Output.Format = c.Format
	}
	if c.XSDMode != "" {
		cfg.Output.XSDMode = c.XSDMode
	}
	if c.ResolutionMode != "" {
		cfg.Output.ResolutionMode = c.ResolutionMode
	}
}

// loadConfig reads a configuration file, choosing the format by extension.
func loadConfig(path string) (*xsdpack.Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.LoadConfig(path)
	case ".yaml", ".yml":
		return yaml.LoadConfig(path)
	}
	return nil, xsdpack.Errorf(xsdpack.EINVALID, "unsupported config file %q: use .yaml, .yml or .toml", path)
}
