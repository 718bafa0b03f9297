package xsdpack

import "strings"

// Kind identifies the kind of a top-level schema declaration.
type Kind uint8

// Declaration kinds indexed by the Type Index.
const (
	KindElement Kind = iota + 1
	KindComplexType
	KindSimpleType
	KindGroup
	KindAttributeGroup
)

// Kinds lists every declaration kind in lookup precedence order.
var Kinds = []Kind{KindComplexType, KindSimpleType, KindElement, KindGroup, KindAttributeGroup}

// String returns the XSD element name for the kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindComplexType:
		return "complexType"
	case KindSimpleType:
		return "simpleType"
	case KindGroup:
		return "group"
	case KindAttributeGroup:
		return "attributeGroup"
	}
	return "unknown"
}

// ParseKind converts an XSD element name (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "element":
		return KindElement, nil
	case "complextype":
		return KindComplexType, nil
	case "simpletype":
		return KindSimpleType, nil
	case "group":
		return KindGroup, nil
	case "attributegroup":
		return KindAttributeGroup, nil
	}
	return 0, Errorf(EINVALID, "unknown declaration kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindElement || k > KindAttributeGroup {
		return nil, Errorf(EINVALID, "unknown declaration kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KindSet is a set of declaration kinds a reference may target.
type KindSet uint8

// Common reference target sets.
const (
	TargetsElement        = KindSet(1 << KindElement)
	TargetsComplexType    = KindSet(1 << KindComplexType)
	TargetsSimpleType     = KindSet(1 << KindSimpleType)
	TargetsGroup          = KindSet(1 << KindGroup)
	TargetsAttributeGroup = KindSet(1 << KindAttributeGroup)
	TargetsType           = TargetsComplexType | TargetsSimpleType
	TargetsAll            = TargetsElement | TargetsType | TargetsGroup | TargetsAttributeGroup
)

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// Kinds returns the members of the set in lookup precedence order.
func (s KindSet) Kinds() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
