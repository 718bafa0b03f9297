package yaml_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/etree"
	"github.com/fwojciec/xsdpack/mock"
	"github.com/fwojciec/xsdpack/resolve"
	"github.com/fwojciec/xsdpack/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:t="urn:t" targetNamespace="urn:t">
  <xs:include schemaLocation="chameleon.xsd"/>
  <xs:element name="Root" type="t:RootType"/>
  <xs:complexType name="RootType">
    <xs:sequence>
      <xs:element name="Code" type="t:Shared" minOccurs="0" maxOccurs="unbounded"/>
      <xs:element name="Broken" type="t:Missng"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

const chameleonXSD = `<?xml version="1.0" encoding="ISO-8859-1"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:simpleType name="Shared">
    <xs:annotation><xs:documentation>Caf` + "\xe9" + ` codes.</xs:documentation></xs:annotation>
    <xs:restriction base="xs:token"><xs:enumeration value="A"/></xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="Missing"><xs:restriction base="xs:string"/></xs:simpleType>
</xs:schema>`

func newPackage(t *testing.T, opts xsdpack.PackageOptions) *xsdpack.Package {
	t.Helper()
	r, err := resolve.NewRepository(
		xsdpack.Config{EntryPoints: []string{"main.xsd"}},
		resolve.WithLoader(mock.MapLoader(map[string]string{"main.xsd": mainXSD, "chameleon.xsd": chameleonXSD})),
		resolve.WithParser(etree.NewParser()),
	)
	require.NoError(t, err)
	require.NoError(t, r.Resolve(context.Background()))
	opts.Metadata = xsdpack.PackageMetadata{
		ID:        "pkg-1",
		Name:      "test",
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	pkg, err := r.Package(opts)
	require.NoError(t, err)
	return pkg
}

func TestCodec(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a resolved package", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		codec := yaml.NewCodec()
		pkg := newPackage(t, xsdpack.PackageOptions{Format: xsdpack.FormatYAML})
		path := filepath.Join(t.TempDir(), "test.yaml")

		require.NoError(t, codec.WritePackage(ctx, path, pkg))
		got, err := codec.ReadPackage(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, pkg, got)
	})

	t.Run("writes the format marker first", func(t *testing.T) {
		t.Parallel()

		codec := yaml.NewCodec()
		path := filepath.Join(t.TempDir(), "test.yaml")
		require.NoError(t, codec.WritePackage(context.Background(), path, newPackage(t, xsdpack.PackageOptions{})))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.True(t, codec.Sniff(data))
		assert.Contains(t, string(data), "markupBase64:")
	})

	t.Run("round-trips a types-only unresolved package", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		codec := yaml.NewCodec()
		pkg := newPackage(t, xsdpack.PackageOptions{
			XSDMode:        xsdpack.XSDModeTypesOnly,
			ResolutionMode: xsdpack.ResolutionUnresolved,
		})
		path := filepath.Join(t.TempDir(), "test.yaml")

		require.NoError(t, codec.WritePackage(ctx, path, pkg))
		got, err := codec.ReadPackage(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, pkg, got)

		r, err := resolve.FromPackage(got)
		require.NoError(t, err)
		require.NoError(t, r.Resolve(ctx))
		res, ok := r.FindType("{urn:t}Shared")
		require.True(t, ok)
		assert.Equal(t, "Café codes.", res.Definition.Doc())
	})

	t.Run("sniffs the marker", func(t *testing.T) {
		t.Parallel()

		codec := yaml.NewCodec()

		assert.True(t, codec.Sniff([]byte("format: xsdpack\nversion: 1\n")))
		assert.True(t, codec.Sniff([]byte("---\nformat: xsdpack\n")))
		assert.False(t, codec.Sniff([]byte("SQLite format 3\x00")))
		assert.False(t, codec.Sniff([]byte("name: something\n")))
		assert.Equal(t, xsdpack.FormatYAML, codec.Format())
	})

	t.Run("rejects content without marker", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "other.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: something\n"), 0o644))

		_, err := yaml.NewCodec().ReadPackage(context.Background(), path)

		assert.Equal(t, xsdpack.EPACKAGE, xsdpack.ErrorCode(err))
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("format: xsdpack\ndocuments: [unclosed\n"), 0o644))

		_, err := yaml.NewCodec().ReadPackage(context.Background(), path)

		var pkgErr *xsdpack.InvalidPackageError
		require.ErrorAs(t, err, &pkgErr)
		assert.Equal(t, "malformed YAML", pkgErr.Reason)
	})

	t.Run("rejects unsupported version", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "future.yaml")
		require.NoError(t, os.WriteFile(path, []byte("format: xsdpack\nversion: 99\nxsdMode: include_all\nresolutionMode: unresolved\n"), 0o644))

		_, err := yaml.NewCodec().ReadPackage(context.Background(), path)

		assert.Equal(t, xsdpack.EPACKAGE, xsdpack.ErrorCode(err))
	})

	t.Run("missing file is a location error", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.NewCodec().ReadPackage(context.Background(), filepath.Join(t.TempDir(), "none.yaml"))

		assert.Equal(t, xsdpack.ELOCATION, xsdpack.ErrorCode(err))
	})
}
