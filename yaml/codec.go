// Package yaml stores schema packages as structured text and loads YAML
// configuration files.
package yaml

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/fwojciec/xsdpack"
	"gopkg.in/yaml.v3"
)

// Header is the first line of every YAML package.
var Header = []byte("format: " + xsdpack.PackageMarker)

// Compile-time interface verification.
var _ xsdpack.PackageCodec = (*Codec)(nil)

// Codec implements xsdpack.PackageCodec for the structured-text format.
type Codec struct{}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Format returns xsdpack.FormatYAML.
func (c *Codec) Format() xsdpack.Format {
	return xsdpack.FormatYAML
}

// Sniff reports whether header starts with the package marker line,
// optionally preceded by a document start marker.
func (c *Codec) Sniff(header []byte) bool {
	header = bytes.TrimPrefix(header, []byte("\xef\xbb\xbf"))
	header = bytes.TrimPrefix(header, []byte("---\n"))
	return bytes.HasPrefix(header, Header)
}

type wirePackage struct {
	Format         string                          `yaml:"format"`
	Version        int                             `yaml:"version"`
	Metadata       xsdpack.PackageMetadata         `yaml:"metadata"`
	XSDMode        xsdpack.XSDMode                 `yaml:"xsdMode"`
	ResolutionMode xsdpack.ResolutionMode          `yaml:"resolutionMode"`
	EntryPoints    []string                        `yaml:"entryPoints,omitempty"`
	Namespaces     []xsdpack.NamespaceMapping      `yaml:"namespaces,omitempty"`
	Mappings       []xsdpack.SchemaLocationMapping `yaml:"mappings,omitempty"`
	Documents      []wireDocument                  `yaml:"documents,omitempty"`
	Index          []xsdpack.IndexRecord           `yaml:"index,omitempty"`
	Failures       []xsdpack.ResolutionFailure     `yaml:"failures,omitempty"`
	Duplicates     []xsdpack.Duplicate             `yaml:"duplicates,omitempty"`
}

type wireDocument struct {
	xsdpack.SchemaDocument `yaml:",inline"`

	// Markup holds UTF-8 source; other encodings go to MarkupBase64.
	Markup       string                  `yaml:"markup,omitempty"`
	MarkupBase64 string                  `yaml:"markupBase64,omitempty"`
	Chameleon    string                  `yaml:"chameleon,omitempty"`
	Source       *xsdpack.DocumentSource `yaml:"source,omitempty"`
}

// WritePackage encodes pkg to path.
func (c *Codec) WritePackage(ctx context.Context, path string, pkg *xsdpack.Package) error {
	if pkg == nil {
		return xsdpack.Errorf(xsdpack.EINVALID, "nil package")
	}
	if err := pkg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toWire(pkg)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode package: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toWire(pkg *xsdpack.Package) *wirePackage {
	w := &wirePackage{
		Format:         pkg.Marker,
		Version:        pkg.Version,
		Metadata:       pkg.Metadata,
		XSDMode:        pkg.XSDMode,
		ResolutionMode: pkg.ResolutionMode,
		EntryPoints:    pkg.EntryPoints,
		Namespaces:     pkg.Namespaces,
		Mappings:       pkg.Mappings,
		Documents:      make([]wireDocument, 0, len(pkg.Documents)),
	}
	for _, doc := range pkg.Documents {
		wd := wireDocument{SchemaDocument: *doc, Chameleon: pkg.Chameleons[doc.Path]}
		if src, ok := pkg.Sources[doc.Path]; ok {
			wd.Source = &src
		}
		if pkg.XSDMode == xsdpack.XSDModeIncludeAll && len(doc.Markup) > 0 {
			if utf8.Valid(doc.Markup) {
				wd.Markup = string(doc.Markup)
			} else {
				wd.MarkupBase64 = base64.StdEncoding.EncodeToString(doc.Markup)
			}
		}
		w.Documents = append(w.Documents, wd)
	}
	if pkg.ResolutionMode == xsdpack.ResolutionResolved {
		w.Index = pkg.Index
		w.Failures = pkg.Failures
		w.Duplicates = pkg.Duplicates
	}
	return w
}

// ReadPackage decodes the package stored at path. Content that is not a
// YAML package fails with an *xsdpack.InvalidPackageError.
func (c *Codec) ReadPackage(ctx context.Context, path string) (*xsdpack.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &xsdpack.LocationNotFoundError{Location: path, Err: err}
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Sniff(data) {
		return nil, &xsdpack.InvalidPackageError{Path: path, Reason: "missing format marker"}
	}

	var w wirePackage
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, &xsdpack.InvalidPackageError{Path: path, Reason: "malformed YAML", Err: err}
	}
	pkg, err := fromWire(&w)
	if err != nil {
		return nil, &xsdpack.InvalidPackageError{Path: path, Reason: "corrupt package", Err: err}
	}
	if err := pkg.Validate(); err != nil {
		return nil, &xsdpack.InvalidPackageError{Path: path, Reason: "unsupported package", Err: err}
	}
	return pkg, nil
}

func fromWire(w *wirePackage) (*xsdpack.Package, error) {
	pkg := &xsdpack.Package{
		Marker:         w.Format,
		Version:        w.Version,
		Metadata:       w.Metadata,
		XSDMode:        w.XSDMode,
		ResolutionMode: w.ResolutionMode,
		EntryPoints:    w.EntryPoints,
		Namespaces:     w.Namespaces,
		Mappings:       w.Mappings,
		Index:          w.Index,
		Failures:       w.Failures,
		Duplicates:     w.Duplicates,
	}
	for i := range w.Documents {
		wd := &w.Documents[i]
		doc := wd.SchemaDocument
		switch {
		case wd.Markup != "":
			doc.Markup = []byte(wd.Markup)
		case wd.MarkupBase64 != "":
			markup, err := base64.StdEncoding.DecodeString(wd.MarkupBase64)
			if err != nil {
				return nil, fmt.Errorf("failed to decode markup of %s: %w", doc.Path, err)
			}
			doc.Markup = markup
		}
		if wd.Chameleon != "" {
			if pkg.Chameleons == nil {
				pkg.Chameleons = make(map[string]string)
			}
			pkg.Chameleons[doc.Path] = wd.Chameleon
		}
		if wd.Source != nil {
			if pkg.Sources == nil {
				pkg.Sources = make(map[string]xsdpack.DocumentSource)
			}
			pkg.Sources[doc.Path] = *wd.Source
		}
		pkg.Documents = append(pkg.Documents, &doc)
	}
	return pkg, nil
}
