package xsdpack

import (
	"context"
	"strings"
)

// Import is an xs:import directive.
type Import struct {
	Namespace      string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	SchemaLocation string `json:"schemaLocation,omitempty" yaml:"schemaLocation,omitempty"`
}

// Include is an xs:include directive.
type Include struct {
	SchemaLocation string `json:"schemaLocation" yaml:"schemaLocation"`
}

// SchemaDocument is one parsed schema source file. It is immutable once
// built; other documents refer to its declarations only by qualified name.
type SchemaDocument struct {
	// Path is the normalized location the document was loaded from, or a
	// synthetic id for documents restored from a package.
	Path string `json:"path" yaml:"path"`

	TargetNamespace      string `json:"targetNamespace,omitempty" yaml:"targetNamespace,omitempty"`
	ElementFormDefault   string `json:"elementFormDefault,omitempty" yaml:"elementFormDefault,omitempty"`
	AttributeFormDefault string `json:"attributeFormDefault,omitempty" yaml:"attributeFormDefault,omitempty"`

	// Namespaces maps prefixes declared in the document to URIs.
	// The empty prefix holds the default namespace.
	Namespaces map[string]string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`

	Elements        []*Element        `json:"elements,omitempty" yaml:"elements,omitempty"`
	ComplexTypes    []*ComplexType    `json:"complexTypes,omitempty" yaml:"complexTypes,omitempty"`
	SimpleTypes     []*SimpleType     `json:"simpleTypes,omitempty" yaml:"simpleTypes,omitempty"`
	Groups          []*Group          `json:"groups,omitempty" yaml:"groups,omitempty"`
	AttributeGroups []*AttributeGroup `json:"attributeGroups,omitempty" yaml:"attributeGroups,omitempty"`

	Imports  []Import  `json:"imports,omitempty" yaml:"imports,omitempty"`
	Includes []Include `json:"includes,omitempty" yaml:"includes,omitempty"`

	// Markup holds the original source. It is nil for documents restored
	// from a types_only package.
	Markup []byte `json:"-" yaml:"-"`

	// ContentHash is the xxhash of the original source, hex encoded.
	ContentHash string `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`
}

// Validate returns an error if the document contains invalid fields.
func (d *SchemaDocument) Validate() error {
	if d.Path == "" {
		return Errorf(EINVALID, "schema document path required")
	}
	for _, decl := range d.Declarations() {
		if decl.DeclName() == "" {
			return Errorf(EINVALID, "top-level %s without name in %s", decl.DeclKind(), d.Path)
		}
	}
	return nil
}

// Declarations returns the top-level declarations in document order:
// elements, complex types, simple types, groups, attribute groups.
func (d *SchemaDocument) Declarations() []Declaration {
	n := len(d.Elements) + len(d.ComplexTypes) + len(d.SimpleTypes) + len(d.Groups) + len(d.AttributeGroups)
	decls := make([]Declaration, 0, n)
	for _, e := range d.Elements {
		decls = append(decls, e)
	}
	for _, t := range d.ComplexTypes {
		decls = append(decls, t)
	}
	for _, t := range d.SimpleTypes {
		decls = append(decls, t)
	}
	for _, g := range d.Groups {
		decls = append(decls, g)
	}
	for _, g := range d.AttributeGroups {
		decls = append(decls, g)
	}
	return decls
}

// Declaration returns the top-level declaration of the given kind and
// local name. When the document declares the name more than once the last
// declaration wins, matching the Type Index.
func (d *SchemaDocument) Declaration(kind Kind, name string) (Declaration, bool) {
	switch kind {
	case KindElement:
		return lastNamed(d.Elements, name)
	case KindComplexType:
		return lastNamed(d.ComplexTypes, name)
	case KindSimpleType:
		return lastNamed(d.SimpleTypes, name)
	case KindGroup:
		return lastNamed(d.Groups, name)
	case KindAttributeGroup:
		return lastNamed(d.AttributeGroups, name)
	}
	return nil, false
}

func lastNamed[D Declaration](decls []D, name string) (Declaration, bool) {
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].DeclName() == name {
			return decls[i], true
		}
	}
	return nil, false
}

// ResolvePrefix returns the namespace URI bound to prefix in this document.
// The xml prefix is always bound.
func (d *SchemaDocument) ResolvePrefix(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	uri, ok := d.Namespaces[prefix]
	return uri, ok
}

// QualifyReference converts a lexical reference name into a QName using the
// document's prefix map. Unprefixed names use the default namespace. When
// the document has no default namespace, chameleon is used instead: it is
// the namespace a no-namespace document adopts from an including document.
func (d *SchemaDocument) QualifyReference(name, chameleon string) (QName, error) {
	return d.qualify(name, chameleon, nil)
}

// Qualify is QualifyReference for a parsed reference: bindings in the
// reference's scope take precedence over the document's prefix map.
func (d *SchemaDocument) Qualify(ref Reference, chameleon string) (QName, error) {
	return d.qualify(ref.Name, chameleon, ref.Scope)
}

func (d *SchemaDocument) qualify(name, chameleon string, scope map[string]string) (QName, error) {
	prefix, local := SplitPrefixed(name)
	if local == "" || strings.Contains(local, ":") {
		return QName{}, Errorf(EINVALID, "invalid QName %q in %s", name, d.Path)
	}
	ns, ok := scope[prefix]
	if !ok && prefix == "" {
		ns = d.Namespaces[""]
	}
	if prefix == "" {
		if ns == "" {
			ns = chameleon
		}
		return QName{Namespace: ns, Local: local}, nil
	}
	if !ok {
		ns, ok = d.ResolvePrefix(prefix)
	}
	if !ok || ns == "" {
		return QName{}, Errorf(EINVALID, "undeclared namespace prefix %q in %s", prefix, d.Path)
	}
	return QName{Namespace: ns, Local: local}, nil
}

// DocumentParser converts raw schema markup to and from SchemaDocuments.
type DocumentParser interface {
	// ParseDocument parses markup loaded from path.
	// Malformed input fails with a *DocumentParseError.
	ParseDocument(path string, data []byte) (*SchemaDocument, error)

	// SerializeDocument renders the document as XSD markup.
	SerializeDocument(doc *SchemaDocument) ([]byte, error)
}

// DocumentLoader reads schema sources by location (file path or URL).
type DocumentLoader interface {
	// LoadDocument returns the raw bytes at location.
	// Returns a *LocationNotFoundError when the location cannot be read.
	LoadDocument(ctx context.Context, location string) ([]byte, error)
}

// HostLimiter paces requests per remote host.
type HostLimiter interface {
	// Wait blocks until a request for the schema at location is allowed
	// by the budget of the host serving it.
	// Returns an error if the context is canceled first.
	Wait(ctx context.Context, location string) error
}
