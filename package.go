package xsdpack

import (
	"context"
	"time"
)

// Package format marker and version written into every package.
const (
	PackageMarker  = "xsdpack"
	PackageVersion = 1
)

// XSDMode controls how much source is kept in a package.
type XSDMode string

// XSD modes.
const (
	// XSDModeIncludeAll keeps full source markup; the package is re-parseable.
	XSDModeIncludeAll XSDMode = "include_all"
	// XSDModeTypesOnly keeps only extracted declarations.
	XSDModeTypesOnly XSDMode = "types_only"
)

// ResolutionMode controls whether a package carries a pre-built Type Index.
type ResolutionMode string

// Resolution modes.
const (
	ResolutionResolved   ResolutionMode = "resolved"
	ResolutionUnresolved ResolutionMode = "unresolved"
)

// Format is the on-disk encoding of a package.
type Format string

// Supported formats.
const (
	FormatSQLite Format = "sqlite" // binary-native
	FormatYAML   Format = "yaml"   // structured text
)

// PackageMetadata describes a package.
type PackageMetadata struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" yaml:"createdAt"`
	Extra       map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IndexRecord is the persisted form of a TypeIndexEntry. The definition is
// re-attached on load by looking up (Origin, Kind, Name.Local).
type IndexRecord struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Name     QName  `json:"name" yaml:"name"`
	Origin   string `json:"origin" yaml:"origin"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
}

// DocumentSource records the merged package a document came from.
type DocumentSource struct {
	PackagePath string `json:"packagePath" yaml:"packagePath"`
	Priority    int    `json:"priority" yaml:"priority"`
}

// Package is the logical content of a package file. Codecs change only its
// on-disk representation.
type Package struct {
	Marker         string
	Version        int
	Metadata       PackageMetadata
	XSDMode        XSDMode
	ResolutionMode ResolutionMode

	EntryPoints []string
	Namespaces  []NamespaceMapping
	Mappings    []SchemaLocationMapping

	// Chameleons maps no-namespace documents to the namespace they adopted
	// from an including document.
	Chameleons map[string]string

	// Sources maps documents of a merged repository to the package they
	// came from.
	Sources map[string]DocumentSource

	Documents []*SchemaDocument

	// Index, Failures and Duplicates are set only when ResolutionMode is resolved.
	Index      []IndexRecord
	Failures   []ResolutionFailure
	Duplicates []Duplicate
}

// Validate returns an error if the package is not a recognizable package.
func (p *Package) Validate() error {
	if p.Marker != PackageMarker {
		return Errorf(EPACKAGE, "unrecognized package marker %q", p.Marker)
	}
	if p.Version != PackageVersion {
		return Errorf(EPACKAGE, "unsupported package version %d", p.Version)
	}
	switch p.XSDMode {
	case XSDModeIncludeAll, XSDModeTypesOnly:
	default:
		return Errorf(EPACKAGE, "unknown xsd mode %q", p.XSDMode)
	}
	switch p.ResolutionMode {
	case ResolutionResolved, ResolutionUnresolved:
	default:
		return Errorf(EPACKAGE, "unknown resolution mode %q", p.ResolutionMode)
	}
	for _, doc := range p.Documents {
		if err := doc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PackageOptions configures how a repository is written.
type PackageOptions struct {
	XSDMode        XSDMode
	ResolutionMode ResolutionMode
	Format         Format
	Metadata       PackageMetadata
}

// Validate fills defaults and rejects unknown modes.
func (o *PackageOptions) Validate() error {
	if o.XSDMode == "" {
		o.XSDMode = XSDModeIncludeAll
	}
	if o.ResolutionMode == "" {
		o.ResolutionMode = ResolutionResolved
	}
	if o.Format == "" {
		o.Format = FormatSQLite
	}
	switch o.XSDMode {
	case XSDModeIncludeAll, XSDModeTypesOnly:
	default:
		return Errorf(EINVALID, "unknown xsd mode %q", o.XSDMode)
	}
	switch o.ResolutionMode {
	case ResolutionResolved, ResolutionUnresolved:
	default:
		return Errorf(EINVALID, "unknown resolution mode %q", o.ResolutionMode)
	}
	switch o.Format {
	case FormatSQLite, FormatYAML:
	default:
		return Errorf(EINVALID, "unknown package format %q", o.Format)
	}
	return nil
}

// PackageCodec reads and writes one package format.
type PackageCodec interface {
	// Format returns the format the codec handles.
	Format() Format

	// Sniff reports whether header (the first bytes of a file) belongs to this format.
	Sniff(header []byte) bool

	// WritePackage writes pkg to path, replacing any existing file.
	WritePackage(ctx context.Context, path string, pkg *Package) error

	// ReadPackage reads a package from path.
	// Returns an *InvalidPackageError if the content is not a valid package.
	ReadPackage(ctx context.Context, path string) (*Package, error)
}
