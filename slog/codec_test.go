package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/mock"
	xslog "github.com/fwojciec/xsdpack/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(readErr, writeErr error) *mock.PackageCodec {
	return &mock.PackageCodec{
		FormatFn: func() xsdpack.Format { return xsdpack.FormatYAML },
		SniffFn:  func(header []byte) bool { return len(header) > 0 },
		WritePackageFn: func(ctx context.Context, path string, pkg *xsdpack.Package) error {
			return writeErr
		},
		ReadPackageFn: func(ctx context.Context, path string) (*xsdpack.Package, error) {
			if readErr != nil {
				return nil, readErr
			}
			return &xsdpack.Package{Documents: []*xsdpack.SchemaDocument{{Path: "a.xsd"}, {Path: "b.xsd"}}}, nil
		},
	}
}

func TestLoggingCodec(t *testing.T) {
	t.Parallel()

	t.Run("logs writes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		codec := xslog.NewLoggingCodec(newCodec(nil, nil), slog.New(slog.NewTextHandler(&buf, nil)))

		err := codec.WritePackage(context.Background(), "out.yaml", &xsdpack.Package{
			Documents: []*xsdpack.SchemaDocument{{Path: "a.xsd"}},
		})

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "write package")
		assert.Contains(t, output, "path=out.yaml")
		assert.Contains(t, output, "format=yaml")
		assert.Contains(t, output, "documents=1")
	})

	t.Run("logs reads", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		codec := xslog.NewLoggingCodec(newCodec(nil, nil), slog.New(slog.NewTextHandler(&buf, nil)))

		pkg, err := codec.ReadPackage(context.Background(), "in.yaml")

		require.NoError(t, err)
		assert.Len(t, pkg.Documents, 2)
		assert.Contains(t, buf.String(), "documents=2")
	})

	t.Run("logs read errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		codec := xslog.NewLoggingCodec(newCodec(errors.New("corrupt"), nil), slog.New(slog.NewTextHandler(&buf, nil)))

		_, err := codec.ReadPackage(context.Background(), "in.yaml")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=corrupt")
		assert.Contains(t, buf.String(), "documents=0")
	})

	t.Run("delegates format and sniff", func(t *testing.T) {
		t.Parallel()

		codec := xslog.NewLoggingCodec(newCodec(nil, nil), slog.New(slog.DiscardHandler))

		assert.Equal(t, xsdpack.FormatYAML, codec.Format())
		assert.True(t, codec.Sniff([]byte("x")))
		assert.False(t, codec.Sniff(nil))
	})
}
