// Package slog provides logging decorators for xsdpack services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/xsdpack"
)

// Ensure LoggingLoader implements xsdpack.DocumentLoader.
var _ xsdpack.DocumentLoader = (*LoggingLoader)(nil)

// LoggingLoader wraps a DocumentLoader with debug logging.
type LoggingLoader struct {
	next   xsdpack.DocumentLoader
	logger *slog.Logger
}

// NewLoggingLoader creates a new LoggingLoader.
func NewLoggingLoader(next xsdpack.DocumentLoader, logger *slog.Logger) *LoggingLoader {
	return &LoggingLoader{next: next, logger: logger}
}

// LoadDocument delegates to the wrapped loader and logs the operation.
func (l *LoggingLoader) LoadDocument(ctx context.Context, location string) (data []byte, err error) {
	defer func(begin time.Time) {
		l.logger.Debug("load",
			"location", location,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.LoadDocument(ctx, location)
}
