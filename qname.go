package xsdpack

import "strings"

// Well-known namespaces.
const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema"
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
)

// QName is a qualified name: an optional namespace URI plus a local name.
// Two QNames are equal when both parts are equal, so QName is usable as a map key.
type QName struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Local     string `json:"local" yaml:"local"`
}

// String returns the name in {namespace}local form, or just local when
// there is no namespace.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// IsZero reports whether q is the zero value.
func (q QName) IsZero() bool {
	return q.Namespace == "" && q.Local == ""
}

// Compare orders names by namespace, then local name.
func (q QName) Compare(other QName) int {
	if c := strings.Compare(q.Namespace, other.Namespace); c != 0 {
		return c
	}
	return strings.Compare(q.Local, other.Local)
}

// ParseClark parses a name in {namespace}local form.
// The bool result is false when s is not in that form.
func ParseClark(s string) (QName, bool) {
	if !strings.HasPrefix(s, "{") {
		return QName{}, false
	}
	ns, local, ok := strings.Cut(s[1:], "}")
	if !ok || local == "" {
		return QName{}, false
	}
	return QName{Namespace: ns, Local: local}, true
}

// SplitPrefixed splits a lexical QName such as "tns:Foo" into prefix and
// local part. Names without a colon have an empty prefix.
func SplitPrefixed(name string) (prefix, local string) {
	name = strings.TrimSpace(name)
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", name
	}
	return prefix, local
}
