package toml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads every section", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "xsdpack.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
entry_points = ["schemas/order.xsd"]
base_dir = "/srv/schemas"

[[namespaces]]
prefix = "ord"
uri = "http://example.com/order"

[[schema_location_mappings]]
from = "urn:old"
to = "local/schema.xsd"

[package]
name = "orders"
description = "Order schemas"

[package.extra]
team = "billing"

[output]
path = "orders.xsdpkg"
resolution_mode = "unresolved"
`), 0o644))

		cfg, err := toml.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"schemas/order.xsd"}, cfg.EntryPoints)
		assert.Equal(t, []xsdpack.NamespaceMapping{{Prefix: "ord", URI: "http://example.com/order"}}, cfg.Namespaces)
		assert.Equal(t, []xsdpack.SchemaLocationMapping{{From: "urn:old", To: "local/schema.xsd"}}, cfg.SchemaLocationMappings)
		assert.Equal(t, "/srv/schemas", cfg.BaseDir)
		assert.Equal(t, filepath.Join(dir, "orders.xsdpkg"), cfg.Output.Path)
		assert.Equal(t, "Order schemas", cfg.Package.Description)
		assert.Equal(t, map[string]string{"team": "billing"}, cfg.Package.Extra)
		assert.Equal(t, xsdpack.ResolutionUnresolved, cfg.PackageOptions().ResolutionMode)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xsdpack.toml")
		require.NoError(t, os.WriteFile(path, []byte("entry_points = [\"a.xsd\"]\nentry = \"b.xsd\"\n"), 0o644))

		_, err := toml.LoadConfig(path)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
		assert.Contains(t, xsdpack.ErrorMessage(err), "entry")
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xsdpack.toml")
		require.NoError(t, os.WriteFile(path, []byte("entry_points = [\n"), 0o644))

		_, err := toml.LoadConfig(path)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})

	t.Run("rejects invalid mapping patterns", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "xsdpack.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
entry_points = ["a.xsd"]

[[schema_location_mappings]]
from = "("
to = "x"
pattern = true
`), 0o644))

		_, err := toml.LoadConfig(path)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})

	t.Run("missing file is a location error", func(t *testing.T) {
		t.Parallel()

		_, err := toml.LoadConfig(filepath.Join(t.TempDir(), "none.toml"))

		assert.Equal(t, xsdpack.ELOCATION, xsdpack.ErrorCode(err))
	})
}
