package http_test

import (
	"context"
	"testing"
	"time"

	xsdhttp "github.com/fwojciec/xsdpack/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHostLimiter(t *testing.T) {
	t.Parallel()

	t.Run("first request to a host is immediate", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(10)

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "https://schemas.example.com/order.xsd"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("schemas on the same host share a budget", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(10)
		require.NoError(t, limiter.Wait(context.Background(), "https://schemas.example.com/order.xsd"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "https://SCHEMAS.example.com:443/common/types.xsd"))
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("hosts are limited independently", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(10)
		require.NoError(t, limiter.Wait(context.Background(), "https://schemas.example.com/order.xsd"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "http://www.w3.org/2001/xml.xsd"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("burst lets the first requests through unpaced", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(1, xsdhttp.WithBurst(3))

		start := time.Now()
		for _, name := range []string{"a.xsd", "b.xsd", "c.xsd"} {
			require.NoError(t, limiter.Wait(context.Background(), "https://schemas.example.com/"+name))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Error(t, limiter.Wait(ctx, "https://schemas.example.com/d.xsd"))
	})

	t.Run("context deadline aborts the wait", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(1)
		require.NoError(t, limiter.Wait(context.Background(), "https://schemas.example.com/order.xsd"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx, "https://schemas.example.com/order.xsd"))
	})

	t.Run("concurrent waits all complete", func(t *testing.T) {
		t.Parallel()

		limiter := xsdhttp.NewHostLimiter(100)

		var g errgroup.Group
		for range 5 {
			g.Go(func() error {
				return limiter.Wait(context.Background(), "https://schemas.example.com/order.xsd")
			})
		}
		assert.NoError(t, g.Wait())
	})
}

func TestHostKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		location string
		want     string
	}{
		{"https://schemas.example.com/order.xsd", "schemas.example.com"},
		{"https://Schemas.Example.COM:443/order.xsd", "schemas.example.com"},
		{"http://www.w3.org:80/2001/xml.xsd", "www.w3.org"},
		{"http://schemas.example.com:8080/order.xsd", "schemas.example.com:8080"},
		{"https://schemas.example.com:80/order.xsd", "schemas.example.com:80"},
		{"http://[::1]:9000/a.xsd", "[::1]:9000"},
		{"common/types.xsd", ""},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, xsdhttp.HostKey(tt.location))
		})
	}
}
