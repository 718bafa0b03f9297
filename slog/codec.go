package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/xsdpack"
)

// Ensure LoggingCodec implements xsdpack.PackageCodec.
var _ xsdpack.PackageCodec = (*LoggingCodec)(nil)

// LoggingCodec wraps a PackageCodec with logging of reads and writes.
type LoggingCodec struct {
	next   xsdpack.PackageCodec
	logger *slog.Logger
}

// NewLoggingCodec creates a new LoggingCodec.
func NewLoggingCodec(next xsdpack.PackageCodec, logger *slog.Logger) *LoggingCodec {
	return &LoggingCodec{next: next, logger: logger}
}

// Format delegates to the wrapped codec.
func (c *LoggingCodec) Format() xsdpack.Format {
	return c.next.Format()
}

// Sniff delegates to the wrapped codec.
func (c *LoggingCodec) Sniff(header []byte) bool {
	return c.next.Sniff(header)
}

// WritePackage delegates to the wrapped codec and logs the operation.
func (c *LoggingCodec) WritePackage(ctx context.Context, path string, pkg *xsdpack.Package) (err error) {
	defer func(begin time.Time) {
		documents := 0
		if pkg != nil {
			documents = len(pkg.Documents)
		}
		c.logger.Info("write package",
			"path", path,
			"format", c.next.Format(),
			"documents", documents,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.WritePackage(ctx, path, pkg)
}

// ReadPackage delegates to the wrapped codec and logs the operation.
func (c *LoggingCodec) ReadPackage(ctx context.Context, path string) (pkg *xsdpack.Package, err error) {
	defer func(begin time.Time) {
		documents := 0
		if pkg != nil {
			documents = len(pkg.Documents)
		}
		c.logger.Info("read package",
			"path", path,
			"format", c.next.Format(),
			"documents", documents,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.ReadPackage(ctx, path)
}
