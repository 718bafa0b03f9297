package xsdpack

// Reference is a named pointer embedded in a declaration, such as
// ref="tns:Foo", type="xs:string" or base="tns:BaseType".
//
// A Reference never owns or points at its target. It is resolved by
// qualified-name lookup in a TypeIndex, through the prefix map of the
// document that declares it.
type Reference struct {
	// Site is the reference-site ordinal, unique within the owning document.
	Site int `json:"site" yaml:"site"`

	// Attr is the attribute the reference came from
	// (ref, type, base, substitutionGroup, itemType, memberTypes).
	Attr string `json:"attr" yaml:"attr"`

	// Targets lists the declaration kinds the reference may resolve to.
	Targets KindSet `json:"targets" yaml:"targets"`

	// Name is the lexical QName as written, e.g. "tns:Foo".
	Name string `json:"name" yaml:"name"`

	// Scope holds the xmlns bindings in effect at the reference that
	// differ from the document's prefix map. Nil when none differ.
	Scope map[string]string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Declaration is a top-level schema declaration. The set of implementations
// is closed: *Element, *ComplexType, *SimpleType, *Group and *AttributeGroup.
type Declaration interface {
	// DeclKind returns the declaration kind.
	DeclKind() Kind

	// DeclName returns the local name of the declaration.
	DeclName() string

	// Refs returns every reference embedded in the declaration, depth-first.
	Refs() []Reference

	// Doc returns annotation documentation text, if any.
	Doc() string

	declaration()
}

// Compile-time verification of the closed variant.
var (
	_ Declaration = (*Element)(nil)
	_ Declaration = (*ComplexType)(nil)
	_ Declaration = (*SimpleType)(nil)
	_ Declaration = (*Group)(nil)
	_ Declaration = (*AttributeGroup)(nil)
)

// Element is an element declaration. Top-level elements are indexed;
// local elements appear inside particles.
type Element struct {
	Name              string       `json:"name,omitempty" yaml:"name,omitempty"`
	Documentation     string       `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Type              *Reference   `json:"type,omitempty" yaml:"type,omitempty"`
	SubstitutionGroup *Reference   `json:"substitutionGroup,omitempty" yaml:"substitutionGroup,omitempty"`
	Abstract          bool         `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Nillable          bool         `json:"nillable,omitempty" yaml:"nillable,omitempty"`
	Default           string       `json:"default,omitempty" yaml:"default,omitempty"`
	Fixed             string       `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	ComplexType       *ComplexType `json:"complexType,omitempty" yaml:"complexType,omitempty"`
	SimpleType        *SimpleType  `json:"simpleType,omitempty" yaml:"simpleType,omitempty"`
}

func (e *Element) DeclKind() Kind   { return KindElement }
func (e *Element) DeclName() string { return e.Name }
func (e *Element) Doc() string      { return e.Documentation }
func (e *Element) declaration()     {}

func (e *Element) Refs() []Reference {
	var refs []Reference
	return e.appendRefs(refs)
}

func (e *Element) appendRefs(refs []Reference) []Reference {
	refs = appendRef(refs, e.Type)
	refs = appendRef(refs, e.SubstitutionGroup)
	if e.ComplexType != nil {
		refs = e.ComplexType.appendRefs(refs)
	}
	if e.SimpleType != nil {
		refs = e.SimpleType.appendRefs(refs)
	}
	return refs
}

// Derivation methods for complex and simple content.
const (
	DerivationExtension   = "extension"
	DerivationRestriction = "restriction"
)

// Content models of a complex type.
const (
	ContentSimple  = "simpleContent"
	ContentComplex = "complexContent"
)

// ComplexType is a complex type definition.
type ComplexType struct {
	Name            string      `json:"name,omitempty" yaml:"name,omitempty"`
	Documentation   string      `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Abstract        bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Mixed           bool        `json:"mixed,omitempty" yaml:"mixed,omitempty"`
	Content         string      `json:"content,omitempty" yaml:"content,omitempty"`
	Derivation      string      `json:"derivation,omitempty" yaml:"derivation,omitempty"`
	Base            *Reference  `json:"base,omitempty" yaml:"base,omitempty"`
	Particle        *Particle   `json:"particle,omitempty" yaml:"particle,omitempty"`
	Attributes      []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	AttributeGroups []Reference `json:"attributeGroups,omitempty" yaml:"attributeGroups,omitempty"`
	Builtin         bool        `json:"builtin,omitempty" yaml:"builtin,omitempty"`
}

func (t *ComplexType) DeclKind() Kind   { return KindComplexType }
func (t *ComplexType) DeclName() string { return t.Name }
func (t *ComplexType) Doc() string      { return t.Documentation }
func (t *ComplexType) declaration()     {}

func (t *ComplexType) Refs() []Reference {
	var refs []Reference
	return t.appendRefs(refs)
}

func (t *ComplexType) appendRefs(refs []Reference) []Reference {
	refs = appendRef(refs, t.Base)
	if t.Particle != nil {
		refs = t.Particle.appendRefs(refs)
	}
	for i := range t.Attributes {
		refs = t.Attributes[i].appendRefs(refs)
	}
	return append(refs, t.AttributeGroups...)
}

// Simple type varieties.
const (
	VarietyAtomic = "atomic"
	VarietyList   = "list"
	VarietyUnion  = "union"
)

// Facet is a constraining facet of a simple type restriction.
type Facet struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// SimpleType is a simple type definition.
type SimpleType struct {
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Documentation string        `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Variety       string        `json:"variety,omitempty" yaml:"variety,omitempty"`
	Base          *Reference    `json:"base,omitempty" yaml:"base,omitempty"`
	BaseType      *SimpleType   `json:"baseType,omitempty" yaml:"baseType,omitempty"`
	ItemType      *Reference    `json:"itemType,omitempty" yaml:"itemType,omitempty"`
	Item          *SimpleType   `json:"item,omitempty" yaml:"item,omitempty"`
	MemberTypes   []Reference   `json:"memberTypes,omitempty" yaml:"memberTypes,omitempty"`
	Members       []*SimpleType `json:"members,omitempty" yaml:"members,omitempty"`
	Enumerations  []string      `json:"enumerations,omitempty" yaml:"enumerations,omitempty"`
	Facets        []Facet       `json:"facets,omitempty" yaml:"facets,omitempty"`
	Builtin       bool          `json:"builtin,omitempty" yaml:"builtin,omitempty"`
}

func (t *SimpleType) DeclKind() Kind   { return KindSimpleType }
func (t *SimpleType) DeclName() string { return t.Name }
func (t *SimpleType) Doc() string      { return t.Documentation }
func (t *SimpleType) declaration()     {}

func (t *SimpleType) Refs() []Reference {
	var refs []Reference
	return t.appendRefs(refs)
}

func (t *SimpleType) appendRefs(refs []Reference) []Reference {
	refs = appendRef(refs, t.Base)
	if t.BaseType != nil {
		refs = t.BaseType.appendRefs(refs)
	}
	refs = appendRef(refs, t.ItemType)
	if t.Item != nil {
		refs = t.Item.appendRefs(refs)
	}
	refs = append(refs, t.MemberTypes...)
	for _, m := range t.Members {
		refs = m.appendRefs(refs)
	}
	return refs
}

// Group is a named model group definition.
type Group struct {
	Name          string    `json:"name" yaml:"name"`
	Documentation string    `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Particle      *Particle `json:"particle,omitempty" yaml:"particle,omitempty"`
}

func (g *Group) DeclKind() Kind   { return KindGroup }
func (g *Group) DeclName() string { return g.Name }
func (g *Group) Doc() string      { return g.Documentation }
func (g *Group) declaration()     {}

func (g *Group) Refs() []Reference {
	if g.Particle == nil {
		return nil
	}
	return g.Particle.appendRefs(nil)
}

// AttributeGroup is a named attribute group definition.
type AttributeGroup struct {
	Name            string      `json:"name" yaml:"name"`
	Documentation   string      `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Attributes      []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	AttributeGroups []Reference `json:"attributeGroups,omitempty" yaml:"attributeGroups,omitempty"`
}

func (g *AttributeGroup) DeclKind() Kind   { return KindAttributeGroup }
func (g *AttributeGroup) DeclName() string { return g.Name }
func (g *AttributeGroup) Doc() string      { return g.Documentation }
func (g *AttributeGroup) declaration()     {}

func (g *AttributeGroup) Refs() []Reference {
	var refs []Reference
	for i := range g.Attributes {
		refs = g.Attributes[i].appendRefs(refs)
	}
	return append(refs, g.AttributeGroups...)
}

// Attribute is a local attribute declaration or attribute reference.
// Attribute references are kept lexically and not indexed.
type Attribute struct {
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Ref        string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	Type       *Reference  `json:"type,omitempty" yaml:"type,omitempty"`
	Use        string      `json:"use,omitempty" yaml:"use,omitempty"`
	Default    string      `json:"default,omitempty" yaml:"default,omitempty"`
	Fixed      string      `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	SimpleType *SimpleType `json:"simpleType,omitempty" yaml:"simpleType,omitempty"`
}

func (a *Attribute) appendRefs(refs []Reference) []Reference {
	refs = appendRef(refs, a.Type)
	if a.SimpleType != nil {
		refs = a.SimpleType.appendRefs(refs)
	}
	return refs
}

// Particle kinds.
const (
	ParticleElement  = "element"
	ParticleGroup    = "group"
	ParticleSequence = "sequence"
	ParticleChoice   = "choice"
	ParticleAll      = "all"
	ParticleAny      = "any"
)

// Unbounded is the MaxOccurs value for maxOccurs="unbounded".
const Unbounded = -1

// Particle is a node of a content model: a local element, an element or
// group reference, a wildcard, or a compositor with child particles.
type Particle struct {
	Kind      string     `json:"kind" yaml:"kind"`
	MinOccurs int        `json:"minOccurs" yaml:"minOccurs"`
	MaxOccurs int        `json:"maxOccurs" yaml:"maxOccurs"`
	Element   *Element   `json:"element,omitempty" yaml:"element,omitempty"`
	Ref       *Reference `json:"ref,omitempty" yaml:"ref,omitempty"`
	Particles []Particle `json:"particles,omitempty" yaml:"particles,omitempty"`
}

func (p *Particle) appendRefs(refs []Reference) []Reference {
	refs = appendRef(refs, p.Ref)
	if p.Element != nil {
		refs = p.Element.appendRefs(refs)
	}
	for i := range p.Particles {
		refs = p.Particles[i].appendRefs(refs)
	}
	return refs
}

func appendRef(refs []Reference, ref *Reference) []Reference {
	if ref == nil {
		return refs
	}
	return append(refs, *ref)
}
