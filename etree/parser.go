// Package etree implements xsdpack.DocumentParser on top of the etree XML
// library: it turns XSD markup into SchemaDocuments and renders them back.
package etree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/xsdpack"
	"golang.org/x/net/html/charset"
)

// Ensure Parser implements xsdpack.DocumentParser at compile time.
var _ xsdpack.DocumentParser = (*Parser)(nil)

// Parser converts XSD markup to and from xsdpack.SchemaDocument.
type Parser struct {
	// KeepMarkup controls whether parsed documents retain their source.
	KeepMarkup bool
}

// NewParser returns a Parser that keeps source markup.
func NewParser() *Parser {
	return &Parser{KeepMarkup: true}
}

// HashContent computes the xxhash of data as a hex string.
func HashContent(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// ParseDocument parses XSD markup loaded from path.
func (p *Parser) ParseDocument(path string, data []byte) (*xsdpack.SchemaDocument, error) {
	if path == "" {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "document path required")
	}
	if len(data) == 0 {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "empty schema content for %s", path)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		parseErr := &xsdpack.DocumentParseError{Path: path, Err: err}
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			parseErr.Line = syntaxErr.Line
		}
		return nil, parseErr
	}

	root := doc.Root()
	if root == nil {
		return nil, &xsdpack.DocumentParseError{Path: path, Err: errors.New("no root element")}
	}
	if root.Tag != "schema" || root.NamespaceURI() != xsdpack.XSDNamespace {
		return nil, &xsdpack.DocumentParseError{
			Path: path,
			Err:  fmt.Errorf("root element %q is not an XML Schema", root.FullTag()),
		}
	}

	b := &builder{
		doc: &xsdpack.SchemaDocument{
			Path:                 path,
			TargetNamespace:      strings.TrimSpace(root.SelectAttrValue("targetNamespace", "")),
			ElementFormDefault:   root.SelectAttrValue("elementFormDefault", ""),
			AttributeFormDefault: root.SelectAttrValue("attributeFormDefault", ""),
			Namespaces:           make(map[string]string),
			ContentHash:          HashContent(data),
		},
	}
	if p.KeepMarkup {
		b.doc.Markup = append([]byte(nil), data...)
	}
	collectNamespaces(root, b.doc.Namespaces)

	if err := b.schema(root); err != nil {
		return nil, &xsdpack.DocumentParseError{Path: path, Err: err}
	}
	if err := b.doc.Validate(); err != nil {
		return nil, &xsdpack.DocumentParseError{Path: path, Err: err}
	}
	return b.doc, nil
}

// collectNamespaces records the xmlns declarations of the schema element.
// Declarations on nested elements are scoped to the references beneath
// them; see builder.scope.
func collectNamespaces(e *etree.Element, into map[string]string) {
	for _, attr := range e.Attr {
		if prefix, ok := xmlnsPrefix(attr); ok {
			into[prefix] = attr.Value
		}
	}
}

// builder walks one schema element tree and assigns reference sites.
type builder struct {
	doc  *xsdpack.SchemaDocument
	site int
}

func isXSD(e *etree.Element) bool {
	return e.NamespaceURI() == xsdpack.XSDNamespace
}

func xsdChildren(e *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if isXSD(child) {
			out = append(out, child)
		}
	}
	return out
}

func (b *builder) schema(root *etree.Element) error {
	for _, child := range xsdChildren(root) {
		switch child.Tag {
		case "import":
			b.doc.Imports = append(b.doc.Imports, xsdpack.Import{
				Namespace:      strings.TrimSpace(child.SelectAttrValue("namespace", "")),
				SchemaLocation: strings.TrimSpace(child.SelectAttrValue("schemaLocation", "")),
			})
		case "include", "redefine", "override":
			loc := strings.TrimSpace(child.SelectAttrValue("schemaLocation", ""))
			if loc == "" {
				return fmt.Errorf("%s without schemaLocation", child.Tag)
			}
			b.doc.Includes = append(b.doc.Includes, xsdpack.Include{SchemaLocation: loc})
		case "element":
			el, err := b.element(child)
			if err != nil {
				return err
			}
			b.doc.Elements = append(b.doc.Elements, el)
		case "complexType":
			ct, err := b.complexType(child)
			if err != nil {
				return err
			}
			b.doc.ComplexTypes = append(b.doc.ComplexTypes, ct)
		case "simpleType":
			st, err := b.simpleType(child)
			if err != nil {
				return err
			}
			b.doc.SimpleTypes = append(b.doc.SimpleTypes, st)
		case "group":
			g, err := b.group(child)
			if err != nil {
				return err
			}
			b.doc.Groups = append(b.doc.Groups, g)
		case "attributeGroup":
			g, err := b.attributeGroup(child)
			if err != nil {
				return err
			}
			b.doc.AttributeGroups = append(b.doc.AttributeGroups, g)
		}
	}
	return nil
}

// ref returns a new reference for a non-empty attribute value.
func (b *builder) ref(e *etree.Element, attr string, targets xsdpack.KindSet) *xsdpack.Reference {
	name := strings.TrimSpace(e.SelectAttrValue(attr, ""))
	if name == "" {
		return nil
	}
	b.site++
	return &xsdpack.Reference{Site: b.site, Attr: attr, Targets: targets, Name: name, Scope: b.scope(e)}
}

// scope returns the xmlns bindings in effect at e that differ from the
// document-wide map, nearest declaration first.
func (b *builder) scope(e *etree.Element) map[string]string {
	var out map[string]string
	seen := make(map[string]bool)
	for el := e; el != nil; el = el.Parent() {
		for _, attr := range el.Attr {
			prefix, ok := xmlnsPrefix(attr)
			if !ok || seen[prefix] {
				continue
			}
			seen[prefix] = true
			if uri, bound := b.doc.Namespaces[prefix]; bound && uri == attr.Value {
				continue
			}
			if out == nil {
				out = make(map[string]string)
			}
			out[prefix] = attr.Value
		}
	}
	return out
}

// xmlnsPrefix reports whether attr declares a namespace and for which
// prefix; the default namespace has the empty prefix.
func xmlnsPrefix(attr etree.Attr) (string, bool) {
	switch {
	case attr.Space == "xmlns":
		return attr.Key, true
	case attr.Space == "" && attr.Key == "xmlns":
		return "", true
	}
	return "", false
}

func documentation(e *etree.Element) string {
	var parts []string
	for _, child := range xsdChildren(e) {
		if child.Tag != "annotation" {
			continue
		}
		for _, d := range xsdChildren(child) {
			if d.Tag != "documentation" {
				continue
			}
			if text := strings.TrimSpace(textContent(d)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// textContent concatenates the character data of e and its descendants.
func textContent(e *etree.Element) string {
	var sb strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			sb.WriteString(textContent(t))
		}
	}
	return sb.String()
}

func boolAttr(e *etree.Element, name string) bool {
	v := strings.TrimSpace(e.SelectAttrValue(name, ""))
	return v == "true" || v == "1"
}

func (b *builder) element(e *etree.Element) (*xsdpack.Element, error) {
	el := &xsdpack.Element{
		Name:          strings.TrimSpace(e.SelectAttrValue("name", "")),
		Documentation: documentation(e),
		Abstract:      boolAttr(e, "abstract"),
		Nillable:      boolAttr(e, "nillable"),
		Default:       e.SelectAttrValue("default", ""),
		Fixed:         e.SelectAttrValue("fixed", ""),
	}
	el.Type = b.ref(e, "type", xsdpack.TargetsType)
	el.SubstitutionGroup = b.ref(e, "substitutionGroup", xsdpack.TargetsElement)
	for _, child := range xsdChildren(e) {
		switch child.Tag {
		case "complexType":
			ct, err := b.complexType(child)
			if err != nil {
				return nil, err
			}
			el.ComplexType = ct
		case "simpleType":
			st, err := b.simpleType(child)
			if err != nil {
				return nil, err
			}
			el.SimpleType = st
		}
	}
	return el, nil
}

func (b *builder) complexType(e *etree.Element) (*xsdpack.ComplexType, error) {
	ct := &xsdpack.ComplexType{
		Name:          strings.TrimSpace(e.SelectAttrValue("name", "")),
		Documentation: documentation(e),
		Abstract:      boolAttr(e, "abstract"),
		Mixed:         boolAttr(e, "mixed"),
	}
	for _, child := range xsdChildren(e) {
		switch child.Tag {
		case "simpleContent", "complexContent":
			ct.Content = child.Tag
			if child.Tag == "complexContent" && boolAttr(child, "mixed") {
				ct.Mixed = true
			}
			for _, deriv := range xsdChildren(child) {
				if deriv.Tag != xsdpack.DerivationExtension && deriv.Tag != xsdpack.DerivationRestriction {
					continue
				}
				ct.Derivation = deriv.Tag
				ct.Base = b.ref(deriv, "base", xsdpack.TargetsType)
				if err := b.contentModel(deriv, ct); err != nil {
					return nil, err
				}
			}
		default:
			if err := b.contentChild(child, ct); err != nil {
				return nil, err
			}
		}
	}
	return ct, nil
}

func (b *builder) contentModel(e *etree.Element, ct *xsdpack.ComplexType) error {
	for _, child := range xsdChildren(e) {
		if err := b.contentChild(child, ct); err != nil {
			return err
		}
	}
	return nil
}

// contentChild handles particles and attribute uses directly inside a
// complex type or its derivation.
func (b *builder) contentChild(child *etree.Element, ct *xsdpack.ComplexType) error {
	switch child.Tag {
	case "sequence", "choice", "all", "group":
		p, err := b.particle(child)
		if err != nil {
			return err
		}
		ct.Particle = p
	case "attribute":
		a, err := b.attribute(child)
		if err != nil {
			return err
		}
		ct.Attributes = append(ct.Attributes, a)
	case "attributeGroup":
		if ref := b.ref(child, "ref", xsdpack.TargetsAttributeGroup); ref != nil {
			ct.AttributeGroups = append(ct.AttributeGroups, *ref)
		}
	}
	return nil
}

func parseOccurs(e *etree.Element, attr string) (int, error) {
	v := strings.TrimSpace(e.SelectAttrValue(attr, ""))
	switch v {
	case "":
		return 1, nil
	case "unbounded":
		return xsdpack.Unbounded, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", attr, v)
	}
	return n, nil
}

func (b *builder) particle(e *etree.Element) (*xsdpack.Particle, error) {
	minOccurs, err := parseOccurs(e, "minOccurs")
	if err != nil {
		return nil, err
	}
	maxOccurs, err := parseOccurs(e, "maxOccurs")
	if err != nil {
		return nil, err
	}
	p := &xsdpack.Particle{Kind: e.Tag, MinOccurs: minOccurs, MaxOccurs: maxOccurs}

	switch e.Tag {
	case "element":
		if ref := b.ref(e, "ref", xsdpack.TargetsElement); ref != nil {
			p.Ref = ref
			return p, nil
		}
		el, err := b.element(e)
		if err != nil {
			return nil, err
		}
		if el.Name == "" {
			return nil, errors.New("local element without name or ref")
		}
		p.Element = el
	case "group":
		p.Ref = b.ref(e, "ref", xsdpack.TargetsGroup)
		if p.Ref == nil {
			return nil, errors.New("group particle without ref")
		}
	case "sequence", "choice", "all":
		for _, child := range xsdChildren(e) {
			switch child.Tag {
			case "element", "group", "sequence", "choice", "all", "any":
				cp, err := b.particle(child)
				if err != nil {
					return nil, err
				}
				p.Particles = append(p.Particles, *cp)
			}
		}
	case "any":
	default:
		return nil, fmt.Errorf("unexpected particle %q", e.Tag)
	}
	return p, nil
}

func (b *builder) attribute(e *etree.Element) (xsdpack.Attribute, error) {
	a := xsdpack.Attribute{
		Name:    strings.TrimSpace(e.SelectAttrValue("name", "")),
		Ref:     strings.TrimSpace(e.SelectAttrValue("ref", "")),
		Use:     e.SelectAttrValue("use", ""),
		Default: e.SelectAttrValue("default", ""),
		Fixed:   e.SelectAttrValue("fixed", ""),
	}
	if a.Name == "" && a.Ref == "" {
		return a, errors.New("attribute without name or ref")
	}
	a.Type = b.ref(e, "type", xsdpack.TargetsSimpleType)
	for _, child := range xsdChildren(e) {
		if child.Tag == "simpleType" {
			st, err := b.simpleType(child)
			if err != nil {
				return a, err
			}
			a.SimpleType = st
		}
	}
	return a, nil
}

func (b *builder) simpleType(e *etree.Element) (*xsdpack.SimpleType, error) {
	st := &xsdpack.SimpleType{
		Name:          strings.TrimSpace(e.SelectAttrValue("name", "")),
		Documentation: documentation(e),
	}
	for _, child := range xsdChildren(e) {
		switch child.Tag {
		case "restriction":
			st.Variety = xsdpack.VarietyAtomic
			st.Base = b.ref(child, "base", xsdpack.TargetsSimpleType)
			for _, facet := range xsdChildren(child) {
				switch facet.Tag {
				case "annotation":
				case "simpleType":
					inner, err := b.simpleType(facet)
					if err != nil {
						return nil, err
					}
					st.BaseType = inner
				case "enumeration":
					st.Enumerations = append(st.Enumerations, facet.SelectAttrValue("value", ""))
				default:
					st.Facets = append(st.Facets, xsdpack.Facet{Name: facet.Tag, Value: facet.SelectAttrValue("value", "")})
				}
			}
		case "list":
			st.Variety = xsdpack.VarietyList
			st.ItemType = b.ref(child, "itemType", xsdpack.TargetsSimpleType)
			for _, inner := range xsdChildren(child) {
				if inner.Tag == "simpleType" {
					item, err := b.simpleType(inner)
					if err != nil {
						return nil, err
					}
					st.Item = item
				}
			}
		case "union":
			st.Variety = xsdpack.VarietyUnion
			for _, name := range strings.Fields(child.SelectAttrValue("memberTypes", "")) {
				b.site++
				st.MemberTypes = append(st.MemberTypes, xsdpack.Reference{
					Site:    b.site,
					Attr:    "memberTypes",
					Targets: xsdpack.TargetsSimpleType,
					Name:    name,
					Scope:   b.scope(child),
				})
			}
			for _, inner := range xsdChildren(child) {
				if inner.Tag == "simpleType" {
					member, err := b.simpleType(inner)
					if err != nil {
						return nil, err
					}
					st.Members = append(st.Members, member)
				}
			}
		}
	}
	return st, nil
}

func (b *builder) group(e *etree.Element) (*xsdpack.Group, error) {
	g := &xsdpack.Group{
		Name:          strings.TrimSpace(e.SelectAttrValue("name", "")),
		Documentation: documentation(e),
	}
	for _, child := range xsdChildren(e) {
		switch child.Tag {
		case "sequence", "choice", "all":
			p, err := b.particle(child)
			if err != nil {
				return nil, err
			}
			g.Particle = p
		}
	}
	return g, nil
}

func (b *builder) attributeGroup(e *etree.Element) (*xsdpack.AttributeGroup, error) {
	g := &xsdpack.AttributeGroup{
		Name:          strings.TrimSpace(e.SelectAttrValue("name", "")),
		Documentation: documentation(e),
	}
	for _, child := range xsdChildren(e) {
		switch child.Tag {
		case "attribute":
			a, err := b.attribute(child)
			if err != nil {
				return nil, err
			}
			g.Attributes = append(g.Attributes, a)
		case "attributeGroup":
			if ref := b.ref(child, "ref", xsdpack.TargetsAttributeGroup); ref != nil {
				g.AttributeGroups = append(g.AttributeGroups, *ref)
			}
		}
	}
	return g, nil
}
