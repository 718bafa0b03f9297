package http

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/xsdpack"
	"golang.org/x/time/rate"
)

var _ xsdpack.HostLimiter = (*HostLimiter)(nil)

// HostLimiter paces schema downloads per serving host. Imports and
// includes of one remote schema set usually point at the same host, so a
// repository resolving a deep graph would otherwise fire every fetch at
// once. Different hosts are paced independently.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// LimiterOption configures a HostLimiter.
type LimiterOption func(*HostLimiter)

// WithBurst lets up to n schema requests to one host go out back to back
// before pacing starts. The default of 1 spaces every request by 1/rps.
// Values below 1 are ignored.
func WithBurst(n int) LimiterOption {
	return func(h *HostLimiter) {
		if n >= 1 {
			h.burst = n
		}
	}
}

// NewHostLimiter creates a HostLimiter allowing rps schema requests per
// second to each host.
func NewHostLimiter(rps float64, opts ...LimiterOption) *HostLimiter {
	h := &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Wait blocks until a request for the schema at location is allowed.
// Locations that carry no host share a single bucket.
func (h *HostLimiter) Wait(ctx context.Context, location string) error {
	return h.bucket(HostKey(location)).Wait(ctx)
}

func (h *HostLimiter) bucket(key string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buckets[key]
	if !ok {
		b = rate.NewLimiter(h.rps, h.burst)
		h.buckets[key] = b
	}
	return b
}

// HostKey returns the bucket key for a schema location: the lowercased
// host name, plus the port when it is not the scheme's default.
// "https://Schemas.Example.com:443/a.xsd" and
// "https://schemas.example.com/b.xsd" share the key "schemas.example.com".
func HostKey(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "",
		port == "80" && u.Scheme == "http",
		port == "443" && u.Scheme == "https":
		return host
	}
	return net.JoinHostPort(host, port)
}
