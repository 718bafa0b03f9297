// Package fs provides file-system access for schema sources and packages.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/xsdpack"
)

// Ensure Loader implements xsdpack.DocumentLoader at compile time.
var _ xsdpack.DocumentLoader = (*Loader)(nil)

// Loader reads schema documents from the local file system. Remote
// locations are handed to an optional remote loader.
type Loader struct {
	remote xsdpack.DocumentLoader
}

// NewLoader creates a Loader. remote may be nil, in which case remote
// locations fail with a *xsdpack.LocationNotFoundError.
func NewLoader(remote xsdpack.DocumentLoader) *Loader {
	return &Loader{remote: remote}
}

// LoadDocument reads the file at location. file:// URLs are accepted.
func (l *Loader) LoadDocument(ctx context.Context, location string) ([]byte, error) {
	if xsdpack.IsRemote(location) {
		if l.remote == nil {
			return nil, &xsdpack.LocationNotFoundError{
				Location: location,
				Err:      errors.New("remote locations are not enabled"),
			}
		}
		return l.remote.LoadDocument(ctx, location)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := location
	if strings.HasPrefix(location, "file:") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, &xsdpack.LocationNotFoundError{Location: location, Err: err}
		}
		path = u.Path
	}

	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &xsdpack.LocationNotFoundError{Location: location, Err: err}
		}
		return nil, err
	}
	return data, nil
}
