package mock

import (
	"context"

	"github.com/fwojciec/xsdpack"
)

var _ xsdpack.PackageCodec = (*PackageCodec)(nil)

// PackageCodec is a mock implementation of xsdpack.PackageCodec.
type PackageCodec struct {
	FormatFn       func() xsdpack.Format
	SniffFn        func(header []byte) bool
	WritePackageFn func(ctx context.Context, path string, pkg *xsdpack.Package) error
	ReadPackageFn  func(ctx context.Context, path string) (*xsdpack.Package, error)
}

func (c *PackageCodec) Format() xsdpack.Format {
	return c.FormatFn()
}

func (c *PackageCodec) Sniff(header []byte) bool {
	return c.SniffFn(header)
}

func (c *PackageCodec) WritePackage(ctx context.Context, path string, pkg *xsdpack.Package) error {
	return c.WritePackageFn(ctx, path, pkg)
}

func (c *PackageCodec) ReadPackage(ctx context.Context, path string) (*xsdpack.Package, error) {
	return c.ReadPackageFn(ctx, path)
}
