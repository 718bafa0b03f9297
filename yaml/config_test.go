package yaml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads every section", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "xsdpack.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
entry_points:
  - schemas/order.xsd
namespaces:
  - prefix: ord
    uri: http://example.com/order
schema_location_mappings:
  - from: urn:old
    to: local/schema.xsd
  - from: ^https://example\.com/(.*)$
    to: mirror/$1
    pattern: true
base_dir: src
package:
  name: orders
  version: 1.0.0
  extra:
    team: billing
output:
  path: out/orders.xsdpkg
  format: yaml
  xsd_mode: types_only
`), 0o644))

		cfg, err := yaml.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"schemas/order.xsd"}, cfg.EntryPoints)
		assert.Equal(t, []xsdpack.NamespaceMapping{{Prefix: "ord", URI: "http://example.com/order"}}, cfg.Namespaces)
		assert.Equal(t, []xsdpack.SchemaLocationMapping{
			{From: "urn:old", To: "local/schema.xsd"},
			{From: `^https://example\.com/(.*)$`, To: "mirror/$1", Pattern: true},
		}, cfg.SchemaLocationMappings)
		assert.Equal(t, filepath.Join(dir, "src"), cfg.BaseDir)
		assert.Equal(t, filepath.Join(dir, "out/orders.xsdpkg"), cfg.Output.Path)
		assert.Equal(t, "orders", cfg.Package.Name)
		assert.Equal(t, map[string]string{"team": "billing"}, cfg.Package.Extra)

		opts := cfg.PackageOptions()
		assert.Equal(t, xsdpack.FormatYAML, opts.Format)
		assert.Equal(t, xsdpack.XSDModeTypesOnly, opts.XSDMode)
	})

	t.Run("defaults base dir to the config directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "xsdpack.yaml")
		require.NoError(t, os.WriteFile(path, []byte("entry_points: [a.xsd]\n"), 0o644))

		cfg, err := yaml.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, dir, cfg.BaseDir)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xsdpack.yaml")
		require.NoError(t, os.WriteFile(path, []byte("entry_points: [a.xsd]\nentrypoints: [b.xsd]\n"), 0o644))

		_, err := yaml.LoadConfig(path)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})

	t.Run("rejects config without entry points", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xsdpack.yaml")
		require.NoError(t, os.WriteFile(path, []byte("base_dir: src\n"), 0o644))

		_, err := yaml.LoadConfig(path)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})

	t.Run("missing file is a location error", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))

		assert.Equal(t, xsdpack.ELOCATION, xsdpack.ErrorCode(err))
	})
}
