package xsdpack

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
)

// SchemaLocationMapping rewrites a requested schema location before it is
// loaded. Literal rules match the normalized location exactly; pattern
// rules match From as a regular expression and expand To as a template
// ($1, ${name}).
type SchemaLocationMapping struct {
	From    string `json:"from" yaml:"from" toml:"from"`
	To      string `json:"to" yaml:"to" toml:"to"`
	Pattern bool   `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern"`
}

// NamespaceMapping binds a prefix to a namespace URI.
type NamespaceMapping struct {
	Prefix string `json:"prefix" yaml:"prefix" toml:"prefix"`
	URI    string `json:"uri" yaml:"uri" toml:"uri"`
}

// LocationMapper applies SchemaLocationMapping rules in declaration order.
type LocationMapper struct {
	rules []compiledMapping
}

type compiledMapping struct {
	rule SchemaLocationMapping
	from string
	re   *regexp.Regexp
}

// NewLocationMapper compiles the rules. Invalid patterns fail with EINVALID.
func NewLocationMapper(rules []SchemaLocationMapping) (*LocationMapper, error) {
	m := &LocationMapper{rules: make([]compiledMapping, 0, len(rules))}
	for _, rule := range rules {
		if rule.From == "" {
			return nil, Errorf(EINVALID, "schema location mapping requires from")
		}
		if rule.To == "" {
			return nil, Errorf(EINVALID, "schema location mapping for %q requires to", rule.From)
		}
		c := compiledMapping{rule: rule}
		if rule.Pattern {
			re, err := regexp.Compile(rule.From)
			if err != nil {
				return nil, Errorf(EINVALID, "invalid schema location pattern %q: %v", rule.From, err)
			}
			c.re = re
		} else {
			c.from = NormalizeLocation(rule.From)
		}
		m.rules = append(m.rules, c)
	}
	return m, nil
}

// Map returns the effective location for a requested one.
// The bool result is false when no rule matched; location is then returned unchanged.
func (m *LocationMapper) Map(location string) (string, bool) {
	if m == nil {
		return location, false
	}
	normalized := NormalizeLocation(location)
	for _, c := range m.rules {
		if c.re == nil {
			if c.from == normalized {
				return c.rule.To, true
			}
			continue
		}
		match := c.re.FindStringSubmatchIndex(location)
		if match == nil {
			continue
		}
		return string(c.re.ExpandString(nil, c.rule.To, location, match)), true
	}
	return location, false
}

// Rules returns the configured rules in order.
func (m *LocationMapper) Rules() []SchemaLocationMapping {
	if m == nil || len(m.rules) == 0 {
		return nil
	}
	rules := make([]SchemaLocationMapping, 0, len(m.rules))
	for _, c := range m.rules {
		rules = append(rules, c.rule)
	}
	return rules
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	scheme := locationScheme(location)
	return scheme == "http" || scheme == "https"
}

// locationScheme returns the URL scheme of location, ignoring
// single-letter schemes so Windows drive letters stay file paths.
func locationScheme(location string) string {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) < 2 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// NormalizeLocation trims a location and cleans file paths to forward
// slashes. URLs and URNs are returned trimmed but otherwise unchanged.
func NormalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if locationScheme(location) != "" {
		return location
	}
	return path.Clean(strings.ReplaceAll(location, `\`, "/"))
}

// JoinLocation resolves rel against the location of the including document.
func JoinLocation(base, rel string) string {
	rel = strings.TrimSpace(rel)
	if locationScheme(rel) != "" {
		return NormalizeLocation(rel)
	}
	if locationScheme(base) != "" {
		b, err := url.Parse(base)
		if err == nil {
			r, err := url.Parse(strings.ReplaceAll(rel, `\`, "/"))
			if err == nil {
				return b.ResolveReference(r).String()
			}
		}
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	if path.IsAbs(rel) || base == "" {
		return NormalizeLocation(rel)
	}
	return NormalizeLocation(path.Join(path.Dir(NormalizeLocation(base)), rel))
}

// Basename returns the last element of a location.
func Basename(location string) string {
	location = NormalizeLocation(location)
	if i := strings.LastIndexAny(location, "/:"); i >= 0 {
		return location[i+1:]
	}
	return location
}

// NamespaceMap is a prefix-to-URI map merged from configuration and from
// xmlns declarations seen while parsing.
type NamespaceMap struct {
	prefixes map[string]string
	explicit map[string]bool
}

// NewNamespaceMap creates a map seeded with explicit configuration.
// Explicit bindings always win over bindings found in documents.
func NewNamespaceMap(mappings []NamespaceMapping) *NamespaceMap {
	m := &NamespaceMap{
		prefixes: make(map[string]string),
		explicit: make(map[string]bool),
	}
	for _, nm := range mappings {
		m.prefixes[nm.Prefix] = nm.URI
		m.explicit[nm.Prefix] = true
	}
	return m
}

// Merge adds bindings declared by a document. The first binding of a
// prefix wins; the default namespace is never merged.
func (m *NamespaceMap) Merge(bindings map[string]string) {
	for prefix, uri := range bindings {
		if prefix == "" {
			continue
		}
		if _, ok := m.prefixes[prefix]; ok {
			continue
		}
		m.prefixes[prefix] = uri
	}
}

// Lookup returns the URI bound to prefix.
func (m *NamespaceMap) Lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	uri, ok := m.prefixes[prefix]
	return uri, ok
}

// PrefixFor returns a prefix bound to uri, preferring explicit bindings.
func (m *NamespaceMap) PrefixFor(uri string) (string, bool) {
	found := ""
	ok := false
	for _, nm := range m.Mappings() {
		if nm.URI != uri {
			continue
		}
		if m.explicit[nm.Prefix] {
			return nm.Prefix, true
		}
		if !ok {
			found, ok = nm.Prefix, true
		}
	}
	return found, ok
}

// Mappings returns all bindings sorted by prefix.
func (m *NamespaceMap) Mappings() []NamespaceMapping {
	out := make([]NamespaceMapping, 0, len(m.prefixes))
	for prefix, uri := range m.prefixes {
		out = append(out, NamespaceMapping{Prefix: prefix, URI: uri})
	}
	sortNamespaceMappings(out)
	return out
}

// Explicit returns the configured bindings sorted by prefix.
func (m *NamespaceMap) Explicit() []NamespaceMapping {
	var out []NamespaceMapping
	for prefix := range m.explicit {
		out = append(out, NamespaceMapping{Prefix: prefix, URI: m.prefixes[prefix]})
	}
	sortNamespaceMappings(out)
	return out
}

func sortNamespaceMappings(mappings []NamespaceMapping) {
	slices.SortFunc(mappings, func(a, b NamespaceMapping) int {
		return strings.Compare(a.Prefix, b.Prefix)
	})
}
