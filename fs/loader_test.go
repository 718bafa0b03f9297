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

func TestLoader_LoadDocument(t *testing.T) {
	t.Parallel()

	t.Run("reads local file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "a.xsd")
		require.NoError(t, os.WriteFile(path, []byte("<schema/>"), 0644))

		data, err := fs.NewLoader(nil).LoadDocument(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, "<schema/>", string(data))
	})

	t.Run("reads file url", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "a.xsd")
		require.NoError(t, os.WriteFile(path, []byte("<schema/>"), 0644))

		data, err := fs.NewLoader(nil).LoadDocument(context.Background(), "file://"+filepath.ToSlash(path))

		require.NoError(t, err)
		assert.Equal(t, "<schema/>", string(data))
	})

	t.Run("missing file is a location error", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewLoader(nil).LoadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.xsd"))

		var locErr *xsdpack.LocationNotFoundError
		require.ErrorAs(t, err, &locErr)
		assert.Equal(t, xsdpack.ELOCATION, xsdpack.ErrorCode(err))
	})

	t.Run("delegates remote locations", func(t *testing.T) {
		t.Parallel()

		var got string
		remote := &mock.DocumentLoader{
			LoadDocumentFn: func(_ context.Context, location string) ([]byte, error) {
				got = location
				return []byte("remote"), nil
			},
		}

		data, err := fs.NewLoader(remote).LoadDocument(context.Background(), "https://example.com/a.xsd")

		require.NoError(t, err)
		assert.Equal(t, "remote", string(data))
		assert.Equal(t, "https://example.com/a.xsd", got)
	})

	t.Run("remote without remote loader fails", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewLoader(nil).LoadDocument(context.Background(), "http://example.com/a.xsd")

		assert.Equal(t, xsdpack.ELOCATION, xsdpack.ErrorCode(err))
	})
}
