package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLoader_LoadDocument(t *testing.T) {
	t.Parallel()

	t.Run("delegates to LoadDocumentFn", func(t *testing.T) {
		t.Parallel()

		var calledWith string
		l := &mock.DocumentLoader{
			LoadDocumentFn: func(_ context.Context, location string) ([]byte, error) {
				calledWith = location
				return []byte("data"), nil
			},
		}

		data, err := l.LoadDocument(context.Background(), "a.xsd")

		require.NoError(t, err)
		assert.Equal(t, "a.xsd", calledWith)
		assert.Equal(t, "data", string(data))
	})
}

func TestMapLoader(t *testing.T) {
	t.Parallel()

	t.Run("serves known locations", func(t *testing.T) {
		t.Parallel()

		l := mock.MapLoader(map[string]string{"a.xsd": "<a/>"})

		data, err := l.LoadDocument(context.Background(), "a.xsd")

		require.NoError(t, err)
		assert.Equal(t, "<a/>", string(data))
	})

	t.Run("unknown location is not found", func(t *testing.T) {
		t.Parallel()

		l := mock.MapLoader(nil)

		_, err := l.LoadDocument(context.Background(), "b.xsd")

		var locErr *xsdpack.LocationNotFoundError
		require.ErrorAs(t, err, &locErr)
		assert.Equal(t, "b.xsd", locErr.Location)
	})
}
