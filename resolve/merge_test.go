package resolve_test

import (
	"context"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sharedXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:x="http://x" targetNamespace="http://x">
  <xs:simpleType name="Shared"><xs:restriction base="xs:string"/></xs:simpleType>
</xs:schema>`

func fooXSD(base string) string {
	return `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:x="http://x" targetNamespace="http://x">
  <xs:simpleType name="Foo"><xs:restriction base="xs:` + base + `"/></xs:simpleType>
</xs:schema>`
}

func buildPackage(t *testing.T, docs map[string]string, entryPoints ...string) *xsdpack.Package {
	t.Helper()
	r := resolvedRepo(t, docs, entryPoints...)
	pkg, err := r.Package(xsdpack.PackageOptions{})
	require.NoError(t, err)
	return pkg
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("winner names the document the index keeps", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"a1.xsd": fooXSD("string"), "a2.xsd": fooXSD("decimal")}, "a1.xsd", "a2.xsd")
		b := buildPackage(t, map[string]string{"b.xsd": fooXSD("int")}, "b.xsd")

		r, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "a.pkg", Priority: 0, Package: a},
			{Path: "b.pkg", Priority: 1, Package: b},
		})

		require.NoError(t, err)
		require.Len(t, report.TypeConflicts, 1)
		c := report.TypeConflicts[0]
		assert.Equal(t, xsdpack.TypeSource{PackagePath: "a.pkg", SchemaFile: "a2.xsd", Priority: 0}, c.Winner)
		assert.Equal(t, c.Winner, c.Sources[0])

		res, ok := r.FindType("x:Foo")
		require.True(t, ok)
		assert.Equal(t, c.Winner.SchemaFile, res.Document)
	})

	t.Run("lower priority wins type conflicts", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"a.xsd": fooXSD("string")}, "a.xsd")
		b := buildPackage(t, map[string]string{"b.xsd": fooXSD("int")}, "b.xsd")

		r, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "b.pkg", Priority: 1, Package: b},
			{Path: "a.pkg", Priority: 0, Package: a},
		})

		require.NoError(t, err)
		require.Len(t, report.TypeConflicts, 1)
		c := report.TypeConflicts[0]
		assert.Equal(t, xsdpack.QName{Namespace: "http://x", Local: "Foo"}, c.Name)
		assert.Equal(t, xsdpack.KindSimpleType, c.Kind)
		assert.Equal(t, []xsdpack.TypeSource{
			{PackagePath: "a.pkg", SchemaFile: "a.xsd", Priority: 0},
			{PackagePath: "b.pkg", SchemaFile: "b.xsd", Priority: 1},
		}, c.Sources)
		assert.Equal(t, "a.pkg", c.Winner.PackagePath)
		assert.Empty(t, report.SchemaConflicts)

		res, ok := r.FindType("x:Foo")
		require.True(t, ok)
		assert.Equal(t, "a.xsd", res.Document)
		st, ok := res.Definition.(*xsdpack.SimpleType)
		require.True(t, ok)
		assert.Equal(t, "xs:string", st.Base.Name)
		assert.Empty(t, r.Duplicates())
	})

	t.Run("equal priorities keep the given order", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"a.xsd": fooXSD("string")}, "a.xsd")
		b := buildPackage(t, map[string]string{"b.xsd": fooXSD("int")}, "b.xsd")

		r, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "b.pkg", Package: b},
			{Path: "a.pkg", Package: a},
		})

		require.NoError(t, err)
		require.Len(t, report.TypeConflicts, 1)
		assert.Equal(t, "b.pkg", report.TypeConflicts[0].Winner.PackagePath)
		res, ok := r.FindType("{http://x}Foo")
		require.True(t, ok)
		assert.Equal(t, "b.xsd", res.Document)
	})

	t.Run("reports identical schema conflicts and renames colliding paths", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"shared.xsd": sharedXSD}, "shared.xsd")
		b := buildPackage(t, map[string]string{"shared.xsd": sharedXSD}, "shared.xsd")

		r, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "a.pkg", Package: a},
			{Path: "b.pkg", Priority: 1, Package: b},
		})

		require.NoError(t, err)
		require.Len(t, report.SchemaConflicts, 1)
		sc := report.SchemaConflicts[0]
		assert.Equal(t, "shared.xsd", sc.Basename)
		assert.Len(t, sc.Sources, 2)
		assert.True(t, sc.Identical())
		assert.True(t, report.HasConflicts())

		_, ok := r.Document("shared.xsd")
		assert.True(t, ok)
		_, ok = r.Document("b.pkg!shared.xsd")
		assert.True(t, ok)
		assert.Equal(t, []string{"a.pkg!shared.xsd", "b.pkg!shared.xsd"}, r.EntryPoints())
	})

	t.Run("differing content is not identical", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"v1/common.xsd": fooXSD("string")}, "v1/common.xsd")
		b := buildPackage(t, map[string]string{"v2/common.xsd": fooXSD("int")}, "v2/common.xsd")

		_, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "a.pkg", Package: a},
			{Path: "b.pkg", Package: b},
		})

		require.NoError(t, err)
		require.Len(t, report.SchemaConflicts, 1)
		assert.Equal(t, "common.xsd", report.SchemaConflicts[0].Basename)
		assert.False(t, report.SchemaConflicts[0].Identical())
	})

	t.Run("disjoint packages merge cleanly", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"order.xsd": orderXSD, "common.xsd": commonXSD}, "order.xsd")
		b := buildPackage(t, map[string]string{"shared.xsd": sharedXSD}, "shared.xsd")

		r, report, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "a.pkg", Package: a},
			{Path: "b.pkg", Package: b},
		})

		require.NoError(t, err)
		assert.False(t, report.HasConflicts())
		assert.Equal(t, resolve.StateResolved, r.State())
		assert.Empty(t, r.Failures())
		assert.Equal(t, 3, r.Statistics().Schemas)
		assert.Equal(t, []string{commonNS, orderNS, "http://x"}, r.AllNamespaces())

		pkg, err := r.Package(xsdpack.PackageOptions{})
		require.NoError(t, err)
		assert.Equal(t, xsdpack.DocumentSource{PackagePath: "b.pkg"}, pkg.Sources["shared.xsd"])
	})

	t.Run("merged package round-trips its sources", func(t *testing.T) {
		t.Parallel()

		a := buildPackage(t, map[string]string{"a.xsd": fooXSD("string")}, "a.xsd")
		b := buildPackage(t, map[string]string{"b.xsd": fooXSD("int")}, "b.xsd")
		merged, _, err := resolve.Merge(context.Background(), []resolve.MergeSource{
			{Path: "a.pkg", Package: a},
			{Path: "b.pkg", Priority: 1, Package: b},
		})
		require.NoError(t, err)
		pkg, err := merged.Package(xsdpack.PackageOptions{ResolutionMode: xsdpack.ResolutionUnresolved})
		require.NoError(t, err)

		restored, err := resolve.FromPackage(pkg)
		require.NoError(t, err)
		require.NoError(t, restored.Resolve(context.Background()))

		res, ok := restored.FindType("{http://x}Foo")
		require.True(t, ok)
		assert.Equal(t, "a.xsd", res.Document)
	})

	t.Run("requires packages", func(t *testing.T) {
		t.Parallel()

		_, _, err := resolve.Merge(context.Background(), nil)
		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))

		_, _, err = resolve.Merge(context.Background(), []resolve.MergeSource{{Path: "a.pkg"}})
		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})
}
