package xsdpack

// builtinSimpleTypes lists the XSD 1.0 built-in simple datatypes plus the
// 1.1 additions commonly seen in industry schemas.
var builtinSimpleTypes = map[string]bool{
	"anySimpleType": true, "anyAtomicType": true,
	"string": true, "normalizedString": true, "token": true, "language": true,
	"Name": true, "NCName": true, "ID": true, "IDREF": true, "IDREFS": true,
	"ENTITY": true, "ENTITIES": true, "NMTOKEN": true, "NMTOKENS": true,
	"boolean": true, "base64Binary": true, "hexBinary": true,
	"float": true, "double": true, "decimal": true, "integer": true,
	"nonPositiveInteger": true, "negativeInteger": true, "long": true,
	"int": true, "short": true, "byte": true, "nonNegativeInteger": true,
	"unsignedLong": true, "unsignedInt": true, "unsignedShort": true,
	"unsignedByte": true, "positiveInteger": true,
	"duration": true, "dayTimeDuration": true, "yearMonthDuration": true,
	"dateTime": true, "dateTimeStamp": true, "time": true, "date": true,
	"gYearMonth": true, "gYear": true, "gMonthDay": true, "gDay": true, "gMonth": true,
	"anyURI": true, "QName": true, "NOTATION": true,
}

// BuiltinType returns the synthetic declaration of an XSD built-in type.
// Built-ins resolve without Type Index entries.
func BuiltinType(name QName) (Declaration, bool) {
	if name.Namespace != XSDNamespace {
		return nil, false
	}
	if name.Local == "anyType" {
		return &ComplexType{Name: name.Local, Builtin: true, Mixed: true}, true
	}
	if builtinSimpleTypes[name.Local] {
		return &SimpleType{Name: name.Local, Variety: VarietyAtomic, Builtin: true}, true
	}
	return nil, false
}
