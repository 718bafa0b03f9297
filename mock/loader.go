package mock

import (
	"context"

	"github.com/fwojciec/xsdpack"
)

var _ xsdpack.DocumentLoader = (*DocumentLoader)(nil)

// DocumentLoader is a mock implementation of xsdpack.DocumentLoader.
type DocumentLoader struct {
	LoadDocumentFn func(ctx context.Context, location string) ([]byte, error)
}

func (l *DocumentLoader) LoadDocument(ctx context.Context, location string) ([]byte, error) {
	return l.LoadDocumentFn(ctx, location)
}

// MapLoader returns a DocumentLoader serving fixed documents by location.
// Unknown locations fail with a *xsdpack.LocationNotFoundError.
func MapLoader(docs map[string]string) *DocumentLoader {
	return &DocumentLoader{
		LoadDocumentFn: func(_ context.Context, location string) ([]byte, error) {
			src, ok := docs[location]
			if !ok {
				return nil, &xsdpack.LocationNotFoundError{Location: location}
			}
			return []byte(src), nil
		},
	}
}

var _ xsdpack.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of xsdpack.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, location string) error
}

func (l *HostLimiter) Wait(ctx context.Context, location string) error {
	return l.WaitFn(ctx, location)
}
