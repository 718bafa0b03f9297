package xsdpack_test

import (
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationMapper_Map(t *testing.T) {
	t.Parallel()

	m, err := xsdpack.NewLocationMapper([]xsdpack.SchemaLocationMapping{
		{From: "urn:old", To: "local/schema.xsd"},
		{From: `./vendor\common.xsd`, To: "common/v2.xsd"},
		{From: `^https://example\.com/schemas/(.*)$`, To: "mirror/$1", Pattern: true},
		{From: `^https://example\.com/.*$`, To: "never.xsd", Pattern: true},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		location string
		want     string
		ok       bool
	}{
		{"literal", "urn:old", "local/schema.xsd", true},
		{"literal matches normalized paths", "vendor/common.xsd", "common/v2.xsd", true},
		{"first pattern wins", "https://example.com/schemas/a/b.xsd", "mirror/a/b.xsd", true},
		{"no match", "other.xsd", "other.xsd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := m.Map(tt.location)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationMapper_NilIsIdentity(t *testing.T) {
	t.Parallel()

	var m *xsdpack.LocationMapper

	got, ok := m.Map("a.xsd")

	assert.False(t, ok)
	assert.Equal(t, "a.xsd", got)
	assert.Nil(t, m.Rules())
}

func TestNewLocationMapper_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]xsdpack.SchemaLocationMapping{
		"missing from":  {To: "a.xsd"},
		"missing to":    {From: "a.xsd"},
		"invalid regex": {From: "(", To: "a.xsd", Pattern: true},
	}
	for name, rule := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := xsdpack.NewLocationMapper([]xsdpack.SchemaLocationMapping{rule})
			assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
		})
	}
}

func TestJoinLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, rel, want string
	}{
		{"schemas/order.xsd", "common.xsd", "schemas/common.xsd"},
		{"schemas/order.xsd", "../shared/types.xsd", "shared/types.xsd"},
		{"schemas/order.xsd", `sub\part.xsd`, "schemas/sub/part.xsd"},
		{"schemas/order.xsd", "/abs/x.xsd", "/abs/x.xsd"},
		{"https://example.com/s/order.xsd", "common.xsd", "https://example.com/s/common.xsd"},
		{"https://example.com/s/order.xsd", "../t/x.xsd", "https://example.com/t/x.xsd"},
		{"order.xsd", "http://other.org/x.xsd", "http://other.org/x.xsd"},
		{"", "a.xsd", "a.xsd"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.rel, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, xsdpack.JoinLocation(tt.base, tt.rel))
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a/b.xsd", xsdpack.NormalizeLocation(" ./a//b.xsd "))
	assert.Equal(t, "C:/schemas/a.xsd", xsdpack.NormalizeLocation(`C:\schemas\a.xsd`))
	assert.Equal(t, "urn:example:a", xsdpack.NormalizeLocation("urn:example:a"))
	assert.Empty(t, xsdpack.NormalizeLocation("  "))
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	assert.True(t, xsdpack.IsRemote("https://example.com/a.xsd"))
	assert.True(t, xsdpack.IsRemote("HTTP://example.com/a.xsd"))
	assert.False(t, xsdpack.IsRemote("file:///a.xsd"))
	assert.False(t, xsdpack.IsRemote(`C:\a.xsd`))
	assert.False(t, xsdpack.IsRemote("a.xsd"))
}

func TestBasename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order.xsd", xsdpack.Basename("schemas/v1/order.xsd"))
	assert.Equal(t, "order.xsd", xsdpack.Basename("https://example.com/s/order.xsd"))
	assert.Equal(t, "order.xsd", xsdpack.Basename("order.xsd"))
}

func TestNamespaceMap(t *testing.T) {
	t.Parallel()

	t.Run("explicit bindings win", func(t *testing.T) {
		t.Parallel()

		m := xsdpack.NewNamespaceMap([]xsdpack.NamespaceMapping{{Prefix: "o", URI: "urn:order"}})
		m.Merge(map[string]string{"o": "urn:other", "c": "urn:common", "": "urn:default"})

		uri, ok := m.Lookup("o")
		require.True(t, ok)
		assert.Equal(t, "urn:order", uri)
		uri, ok = m.Lookup("c")
		require.True(t, ok)
		assert.Equal(t, "urn:common", uri)
		_, ok = m.Lookup("")
		assert.False(t, ok)
	})

	t.Run("xml prefix is predeclared", func(t *testing.T) {
		t.Parallel()

		uri, ok := xsdpack.NewNamespaceMap(nil).Lookup("xml")

		require.True(t, ok)
		assert.Equal(t, xsdpack.XMLNamespace, uri)
	})

	t.Run("prefix for prefers explicit bindings", func(t *testing.T) {
		t.Parallel()

		m := xsdpack.NewNamespaceMap([]xsdpack.NamespaceMapping{{Prefix: "z", URI: "urn:order"}})
		m.Merge(map[string]string{"a": "urn:order"})

		prefix, ok := m.PrefixFor("urn:order")

		require.True(t, ok)
		assert.Equal(t, "z", prefix)
		_, ok = m.PrefixFor("urn:none")
		assert.False(t, ok)
	})

	t.Run("lists bindings sorted by prefix", func(t *testing.T) {
		t.Parallel()

		m := xsdpack.NewNamespaceMap([]xsdpack.NamespaceMapping{{Prefix: "o", URI: "urn:order"}})
		m.Merge(map[string]string{"c": "urn:common"})

		assert.Equal(t, []xsdpack.NamespaceMapping{
			{Prefix: "c", URI: "urn:common"},
			{Prefix: "o", URI: "urn:order"},
		}, m.Mappings())
		assert.Equal(t, []xsdpack.NamespaceMapping{{Prefix: "o", URI: "urn:order"}}, m.Explicit())
	})
}
