package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/xsdpack"
)

// WriteFile writes data to path atomically: the data goes to a temporary
// file in the same directory which is then renamed into place.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := NewAtomicFile(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.TempPath(), data, perm); err != nil {
		_ = f.Abort()
		return fmt.Errorf("write temp file: %w", err)
	}
	return f.Commit()
}

// AtomicFile stages a file next to its final path. Writers fill TempPath,
// then Commit renames it over the final path or Abort removes it. A failed
// write therefore leaves no file, or the previous file untouched.
type AtomicFile struct {
	final string
	temp  string
}

// NewAtomicFile reserves a temporary path in the directory of path.
func NewAtomicFile(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return nil, err
	}
	// Writers that create their own file (such as a database) need the
	// path to be free.
	if err := os.Remove(name); err != nil {
		return nil, err
	}
	return &AtomicFile{final: path, temp: name}, nil
}

// TempPath returns the staging path.
func (f *AtomicFile) TempPath() string {
	return f.temp
}

// Path returns the final path.
func (f *AtomicFile) Path() string {
	return f.final
}

// Commit moves the staged file into place.
func (f *AtomicFile) Commit() error {
	if err := os.Rename(f.temp, f.final); err != nil {
		_ = os.Remove(f.temp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort removes the staged file and any database side files next to it.
func (f *AtomicFile) Abort() error {
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		_ = os.Remove(f.temp + suffix)
	}
	if err := os.Remove(f.temp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DocumentPath converts a schema location to a relative file path.
// Example: https://example.com/schemas/common.xsd → example.com/schemas/common.xsd
func DocumentPath(location string) (string, error) {
	p := location
	if xsdpack.IsRemote(location) || strings.HasPrefix(location, "file:") {
		u, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		p = path.Join(u.Host, u.Path)
	}
	p = path.Clean("/" + strings.ReplaceAll(p, `\`, "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", xsdpack.Errorf(xsdpack.EINVALID, "no file path for location %q", location)
	}
	// Keep archive-style ids such as "pkg.db!schemas/a.xsd" on disk.
	p = strings.ReplaceAll(p, "!", "/")
	if path.Ext(p) == "" {
		p += ".xsd"
	}
	return p, nil
}

// Exporter writes schema documents back to a directory as XSD files.
type Exporter struct {
	baseDir string
	parser  xsdpack.DocumentParser
}

// NewExporter creates an Exporter that writes below baseDir.
func NewExporter(baseDir string, parser xsdpack.DocumentParser) *Exporter {
	return &Exporter{baseDir: baseDir, parser: parser}
}

// ExportDocument renders doc and writes it atomically. It returns the
// written path.
func (e *Exporter) ExportDocument(ctx context.Context, doc *xsdpack.SchemaDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}

	relPath, err := DocumentPath(doc.Path)
	if err != nil {
		return "", err
	}
	data, err := e.parser.SerializeDocument(doc)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(e.baseDir, filepath.FromSlash(relPath))
	if err := WriteFile(fullPath, data, 0644); err != nil {
		return "", err
	}
	return fullPath, nil
}
