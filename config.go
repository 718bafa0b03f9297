package xsdpack

import "path/filepath"

// Config is the plain-data input of a repository build.
type Config struct {
	// EntryPoints lists the schema files loading starts from.
	EntryPoints []string `yaml:"entry_points" toml:"entry_points"`

	// Namespaces binds prefixes used in queries and in generated markup.
	Namespaces []NamespaceMapping `yaml:"namespaces,omitempty" toml:"namespaces"`

	// SchemaLocationMappings rewrite import/include locations before loading.
	SchemaLocationMappings []SchemaLocationMapping `yaml:"schema_location_mappings,omitempty" toml:"schema_location_mappings"`

	// BaseDir resolves relative entry points and mapping targets.
	// Empty means the working directory.
	BaseDir string `yaml:"base_dir,omitempty" toml:"base_dir"`

	Package PackageConfig `yaml:"package,omitempty" toml:"package"`
	Output  OutputConfig  `yaml:"output,omitempty" toml:"output"`
}

// PackageConfig holds package metadata.
type PackageConfig struct {
	Name        string            `yaml:"name,omitempty" toml:"name"`
	Version     string            `yaml:"version,omitempty" toml:"version"`
	Description string            `yaml:"description,omitempty" toml:"description"`
	Extra       map[string]string `yaml:"extra,omitempty" toml:"extra"`
}

// OutputConfig selects where and how a package is written.
type OutputConfig struct {
	Path           string `yaml:"path,omitempty" toml:"path"`
	Format         string `yaml:"format,omitempty" toml:"format"`
	XSDMode        string `yaml:"xsd_mode,omitempty" toml:"xsd_mode"`
	ResolutionMode string `yaml:"resolution_mode,omitempty" toml:"resolution_mode"`
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if len(c.EntryPoints) == 0 {
		return Errorf(EINVALID, "at least one entry point required")
	}
	for _, ep := range c.EntryPoints {
		if ep == "" {
			return Errorf(EINVALID, "empty entry point")
		}
	}
	for _, nm := range c.Namespaces {
		if nm.URI == "" {
			return Errorf(EINVALID, "namespace prefix %q has no uri", nm.Prefix)
		}
	}
	if _, err := NewLocationMapper(c.SchemaLocationMappings); err != nil {
		return err
	}
	return nil
}

// PackageOptions converts the output and package sections to PackageOptions.
func (c *Config) PackageOptions() PackageOptions {
	return PackageOptions{
		XSDMode:        XSDMode(c.Output.XSDMode),
		ResolutionMode: ResolutionMode(c.Output.ResolutionMode),
		Format:         Format(c.Output.Format),
		Metadata: PackageMetadata{
			Name:        c.Package.Name,
			Version:     c.Package.Version,
			Description: c.Package.Description,
			Extra:       c.Package.Extra,
		},
	}
}

// ResolvePaths makes BaseDir and Output.Path absolute against dir, the
// directory of the configuration file. An empty BaseDir becomes dir.
func (c *Config) ResolvePaths(dir string) {
	if dir == "" {
		return
	}
	switch {
	case c.BaseDir == "":
		c.BaseDir = dir
	case !filepath.IsAbs(c.BaseDir):
		c.BaseDir = filepath.Join(dir, c.BaseDir)
	}
	if c.Output.Path != "" && !filepath.IsAbs(c.Output.Path) {
		c.Output.Path = filepath.Join(dir, c.Output.Path)
	}
}
