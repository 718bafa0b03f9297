package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/fs"
	"github.com/fwojciec/xsdpack/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	t.Parallel()

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		require.NoError(t, fs.WriteFile(path, []byte("new"), 0644))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, fs.WriteFile(filepath.Join(dir, "out.txt"), []byte("x"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out.txt", entries[0].Name())
	})
}

func TestAtomicFile(t *testing.T) {
	t.Parallel()

	t.Run("commit moves staged file into place", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pkg.db")
		f, err := fs.NewAtomicFile(path)
		require.NoError(t, err)
		assert.NotEqual(t, path, f.TempPath())
		assert.NoFileExists(t, f.TempPath())

		require.NoError(t, os.WriteFile(f.TempPath(), []byte("data"), 0644))
		require.NoError(t, f.Commit())

		assert.FileExists(t, path)
		assert.NoFileExists(t, f.TempPath())
	})

	t.Run("abort keeps previous file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pkg.db")
		require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

		f, err := fs.NewAtomicFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(f.TempPath(), []byte("partial"), 0644))
		require.NoError(t, f.Abort())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "previous", string(data))
		assert.NoFileExists(t, f.TempPath())
	})

	t.Run("abort without staged file succeeds", func(t *testing.T) {
		t.Parallel()

		f, err := fs.NewAtomicFile(filepath.Join(t.TempDir(), "pkg.db"))
		require.NoError(t, err)

		assert.NoError(t, f.Abort())
	})
}

func TestDocumentPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		location string
		want     string
	}{
		{"schemas/order.xsd", "schemas/order.xsd"},
		{"/abs/order.xsd", "abs/order.xsd"},
		{"../up/order.xsd", "up/order.xsd"},
		{"https://example.com/schemas/common.xsd", "example.com/schemas/common.xsd"},
		{"pkg.db!schemas/a.xsd", "pkg.db/schemas/a.xsd"},
		{"schemas/noext", "schemas/noext.xsd"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			t.Parallel()

			got, err := fs.DocumentPath(tt.location)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExporter_ExportDocument(t *testing.T) {
	t.Parallel()

	t.Run("writes serialized document", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		parser := &mock.DocumentParser{
			SerializeDocumentFn: func(doc *xsdpack.SchemaDocument) ([]byte, error) {
				return []byte("<xs:schema/>"), nil
			},
		}

		path, err := fs.NewExporter(dir, parser).ExportDocument(context.Background(), &xsdpack.SchemaDocument{Path: "schemas/a.xsd"})

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "schemas", "a.xsd"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<xs:schema/>", string(data))
	})

	t.Run("rejects invalid document", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewExporter(t.TempDir(), &mock.DocumentParser{}).ExportDocument(context.Background(), &xsdpack.SchemaDocument{})

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})
}
