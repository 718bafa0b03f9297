// Package http provides an HTTP-based implementation of xsdpack.DocumentLoader
// for schemas referenced by http and https locations.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/xsdpack"
)

// DefaultLoadTimeout is the default timeout for HTTP requests.
const DefaultLoadTimeout = 10 * time.Second

// DefaultMaxBytes caps the size of a single schema download.
const DefaultMaxBytes = 32 << 20

// Ensure Loader implements xsdpack.DocumentLoader at compile time.
var _ xsdpack.DocumentLoader = (*Loader)(nil)

// Loader retrieves schema documents over HTTP, pacing requests per host.
type Loader struct {
	client      *http.Client
	limiter     xsdpack.HostLimiter
	logger      *slog.Logger
	timeout     time.Duration
	maxBytes    int64
	retryDelays []time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultLoadTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithLimiter sets the per-host rate limiter. Without one, requests are not paced.
func WithLimiter(limiter xsdpack.HostLimiter) Option {
	return func(l *Loader) {
		l.limiter = limiter
	}
}

// WithMaxBytes caps response bodies.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		l.maxBytes = n
	}
}

// WithRetryDelays retries transient failures once per delay, waiting the
// delay before each retry. Without delays, failures are returned at once.
func WithRetryDelays(delays []time.Duration) Option {
	return func(l *Loader) {
		l.retryDelays = delays
	}
}

// WithLogger sets the logger retries are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// DefaultRetryDelays returns the backoff delays for load retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// NewLoader creates a new HTTP-based Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger:   slog.New(slog.DiscardHandler),
		timeout:  DefaultLoadTimeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.client = &http.Client{
		Timeout: l.timeout,
	}

	return l
}

// LoadDocument retrieves the schema at location.
// Missing documents fail with a *xsdpack.LocationNotFoundError.
// Network errors, 429 and 5xx responses are retried when retry delays are set.
func (l *Loader) LoadDocument(ctx context.Context, location string) ([]byte, error) {
	if _, err := url.Parse(location); err != nil {
		return nil, &xsdpack.LocationNotFoundError{Location: location, Err: err}
	}

	for attempt := 0; ; attempt++ {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx, location); err != nil {
				return nil, err
			}
		}

		body, err := l.fetch(ctx, location)
		if err == nil {
			return body, nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return nil, err
		}
		if attempt >= len(l.retryDelays) {
			return nil, te.err
		}

		l.logger.Debug("retrying schema load", "location", location, "attempt", attempt+2, "err", te.err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelays[attempt]):
		}
	}
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &xsdpack.LocationNotFoundError{Location: location, Err: err}
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: &xsdpack.LocationNotFoundError{Location: location, Err: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &xsdpack.LocationNotFoundError{
			Location: location,
			Err:      fmt.Errorf("HTTP %d", resp.StatusCode),
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: err}
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > l.maxBytes {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "schema at %s exceeds %d bytes", location, l.maxBytes)
	}

	return body, nil
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }
