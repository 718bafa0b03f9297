package etree

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/xsdpack"
)

// SerializeDocument renders doc as XSD markup. Documents that kept their
// source return it unchanged; others are regenerated from declarations.
func (p *Parser) SerializeDocument(doc *xsdpack.SchemaDocument) ([]byte, error) {
	if doc == nil {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "nil schema document")
	}
	if doc.Markup != nil {
		return append([]byte(nil), doc.Markup...), nil
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	w := &writer{prefix: xsdPrefix(doc.Namespaces)}
	root := out.CreateElement(w.tag("schema"))

	prefixes := make([]string, 0, len(doc.Namespaces))
	for prefix := range doc.Namespaces {
		prefixes = append(prefixes, prefix)
	}
	slices.Sort(prefixes)
	for _, prefix := range prefixes {
		if prefix == "" {
			root.CreateAttr("xmlns", doc.Namespaces[prefix])
			continue
		}
		root.CreateAttr("xmlns:"+prefix, doc.Namespaces[prefix])
	}
	if _, ok := doc.Namespaces[w.prefix]; !ok {
		root.CreateAttr("xmlns:"+w.prefix, xsdpack.XSDNamespace)
	}
	setAttr(root, "targetNamespace", doc.TargetNamespace)
	setAttr(root, "elementFormDefault", doc.ElementFormDefault)
	setAttr(root, "attributeFormDefault", doc.AttributeFormDefault)

	for _, imp := range doc.Imports {
		e := root.CreateElement(w.tag("import"))
		setAttr(e, "namespace", imp.Namespace)
		setAttr(e, "schemaLocation", imp.SchemaLocation)
	}
	for _, inc := range doc.Includes {
		e := root.CreateElement(w.tag("include"))
		setAttr(e, "schemaLocation", inc.SchemaLocation)
	}
	for _, decl := range doc.Declarations() {
		switch d := decl.(type) {
		case *xsdpack.Element:
			w.element(root, d)
		case *xsdpack.ComplexType:
			w.complexType(root, d)
		case *xsdpack.SimpleType:
			w.simpleType(root, d)
		case *xsdpack.Group:
			w.group(root, d)
		case *xsdpack.AttributeGroup:
			w.attributeGroup(root, d)
		}
	}

	out.Indent(2)
	return out.WriteToBytes()
}

// xsdPrefix picks the prefix the document already binds to the XSD
// namespace, falling back to xs or xsd when those are free.
func xsdPrefix(namespaces map[string]string) string {
	var bound []string
	for prefix, uri := range namespaces {
		if uri == xsdpack.XSDNamespace && prefix != "" {
			bound = append(bound, prefix)
		}
	}
	if len(bound) > 0 {
		slices.Sort(bound)
		return bound[0]
	}
	for _, candidate := range []string{"xs", "xsd", "xsdpack-xs"} {
		if _, taken := namespaces[candidate]; !taken {
			return candidate
		}
	}
	return "xsdpack-xs"
}

type writer struct {
	prefix string
}

func (w *writer) tag(local string) string {
	return w.prefix + ":" + local
}

func setAttr(e *etree.Element, key, value string) {
	if value != "" {
		e.CreateAttr(key, value)
	}
}

func setBool(e *etree.Element, key string, value bool) {
	if value {
		e.CreateAttr(key, "true")
	}
}

func setRef(e *etree.Element, ref *xsdpack.Reference) {
	if ref != nil {
		setScope(e, ref.Scope)
		e.CreateAttr(ref.Attr, ref.Name)
	}
}

// setScope redeclares the bindings a reference was parsed under.
func setScope(e *etree.Element, scope map[string]string) {
	prefixes := slices.Sorted(maps.Keys(scope))
	for _, prefix := range prefixes {
		key := "xmlns"
		if prefix != "" {
			key += ":" + prefix
		}
		if e.SelectAttr(key) == nil {
			e.CreateAttr(key, scope[prefix])
		}
	}
}

func (w *writer) annotation(parent *etree.Element, text string) {
	if text == "" {
		return
	}
	ann := parent.CreateElement(w.tag("annotation"))
	ann.CreateElement(w.tag("documentation")).SetText(text)
}

func (w *writer) element(parent *etree.Element, el *xsdpack.Element) *etree.Element {
	e := parent.CreateElement(w.tag("element"))
	w.elementBody(e, el)
	return e
}

func (w *writer) elementBody(e *etree.Element, el *xsdpack.Element) {
	setAttr(e, "name", el.Name)
	setRef(e, el.Type)
	setRef(e, el.SubstitutionGroup)
	setBool(e, "abstract", el.Abstract)
	setBool(e, "nillable", el.Nillable)
	setAttr(e, "default", el.Default)
	setAttr(e, "fixed", el.Fixed)
	w.annotation(e, el.Documentation)
	if el.ComplexType != nil {
		w.complexType(e, el.ComplexType)
	}
	if el.SimpleType != nil {
		w.simpleType(e, el.SimpleType)
	}
}

func (w *writer) complexType(parent *etree.Element, ct *xsdpack.ComplexType) {
	e := parent.CreateElement(w.tag("complexType"))
	setAttr(e, "name", ct.Name)
	setBool(e, "abstract", ct.Abstract)
	setBool(e, "mixed", ct.Mixed)
	w.annotation(e, ct.Documentation)

	body := e
	if ct.Content != "" {
		content := e.CreateElement(w.tag(ct.Content))
		derivation := ct.Derivation
		if derivation == "" {
			derivation = xsdpack.DerivationRestriction
		}
		body = content.CreateElement(w.tag(derivation))
		setRef(body, ct.Base)
	}
	if ct.Particle != nil {
		w.particle(body, ct.Particle)
	}
	for i := range ct.Attributes {
		w.attribute(body, &ct.Attributes[i])
	}
	for _, ref := range ct.AttributeGroups {
		body.CreateElement(w.tag("attributeGroup")).CreateAttr("ref", ref.Name)
	}
}

func (w *writer) occurs(e *etree.Element, p *xsdpack.Particle) {
	if p.MinOccurs != 1 {
		e.CreateAttr("minOccurs", strconv.Itoa(p.MinOccurs))
	}
	switch {
	case p.MaxOccurs == xsdpack.Unbounded:
		e.CreateAttr("maxOccurs", "unbounded")
	case p.MaxOccurs != 1:
		e.CreateAttr("maxOccurs", strconv.Itoa(p.MaxOccurs))
	}
}

func (w *writer) particle(parent *etree.Element, p *xsdpack.Particle) {
	var e *etree.Element
	switch p.Kind {
	case xsdpack.ParticleElement:
		e = parent.CreateElement(w.tag("element"))
		if p.Ref != nil {
			setRef(e, p.Ref)
		} else if p.Element != nil {
			w.elementBody(e, p.Element)
		}
	case xsdpack.ParticleGroup:
		e = parent.CreateElement(w.tag("group"))
		setRef(e, p.Ref)
	default:
		e = parent.CreateElement(w.tag(p.Kind))
		for i := range p.Particles {
			w.particle(e, &p.Particles[i])
		}
	}
	w.occurs(e, p)
}

func (w *writer) attribute(parent *etree.Element, a *xsdpack.Attribute) {
	e := parent.CreateElement(w.tag("attribute"))
	setAttr(e, "name", a.Name)
	setAttr(e, "ref", a.Ref)
	setRef(e, a.Type)
	setAttr(e, "use", a.Use)
	setAttr(e, "default", a.Default)
	setAttr(e, "fixed", a.Fixed)
	if a.SimpleType != nil {
		w.simpleType(e, a.SimpleType)
	}
}

func (w *writer) simpleType(parent *etree.Element, st *xsdpack.SimpleType) {
	e := parent.CreateElement(w.tag("simpleType"))
	setAttr(e, "name", st.Name)
	w.annotation(e, st.Documentation)

	switch st.Variety {
	case xsdpack.VarietyList:
		list := e.CreateElement(w.tag("list"))
		setRef(list, st.ItemType)
		if st.Item != nil {
			w.simpleType(list, st.Item)
		}
	case xsdpack.VarietyUnion:
		union := e.CreateElement(w.tag("union"))
		if len(st.MemberTypes) > 0 {
			names := make([]string, 0, len(st.MemberTypes))
			for _, ref := range st.MemberTypes {
				setScope(union, ref.Scope)
				names = append(names, ref.Name)
			}
			union.CreateAttr("memberTypes", strings.Join(names, " "))
		}
		for _, m := range st.Members {
			w.simpleType(union, m)
		}
	default:
		r := e.CreateElement(w.tag("restriction"))
		setRef(r, st.Base)
		if st.BaseType != nil {
			w.simpleType(r, st.BaseType)
		}
		for _, v := range st.Enumerations {
			r.CreateElement(w.tag("enumeration")).CreateAttr("value", v)
		}
		for _, f := range st.Facets {
			r.CreateElement(w.tag(f.Name)).CreateAttr("value", f.Value)
		}
	}
}

func (w *writer) group(parent *etree.Element, g *xsdpack.Group) {
	e := parent.CreateElement(w.tag("group"))
	setAttr(e, "name", g.Name)
	w.annotation(e, g.Documentation)
	if g.Particle != nil {
		w.particle(e, g.Particle)
	}
}

func (w *writer) attributeGroup(parent *etree.Element, g *xsdpack.AttributeGroup) {
	e := parent.CreateElement(w.tag("attributeGroup"))
	setAttr(e, "name", g.Name)
	w.annotation(e, g.Documentation)
	for i := range g.Attributes {
		w.attribute(e, &g.Attributes[i])
	}
	for _, ref := range g.AttributeGroups {
		e.CreateElement(w.tag("attributeGroup")).CreateAttr("ref", ref.Name)
	}
}
