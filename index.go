package xsdpack

import "slices"

// IndexKey identifies one Type Index slot.
type IndexKey struct {
	Kind Kind
	Name QName
}

// TypeIndexEntry is one indexed top-level declaration.
type TypeIndexEntry struct {
	Name       QName
	Kind       Kind
	Definition Declaration // owned by the origin document
	Origin     string      // path of the declaring document
	Priority   int         // lower wins when merging packages
	Source     string      // package path for merged repositories
}

// Key returns the index key of the entry.
func (e *TypeIndexEntry) Key() IndexKey {
	return IndexKey{Kind: e.Kind, Name: e.Name}
}

// TypeIndex maps (kind, qualified name) to the chosen declaration.
// It is mutated only while a repository resolves and is read-only afterwards.
type TypeIndex struct {
	entries map[IndexKey]*TypeIndexEntry
	byLocal map[string][]IndexKey
}

// NewTypeIndex returns an empty index.
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{
		entries: make(map[IndexKey]*TypeIndexEntry),
		byLocal: make(map[string][]IndexKey),
	}
}

// Put stores e, returning the entry it replaced, if any.
func (ix *TypeIndex) Put(e *TypeIndexEntry) *TypeIndexEntry {
	key := e.Key()
	prev, ok := ix.entries[key]
	ix.entries[key] = e
	if !ok {
		ix.byLocal[key.Name.Local] = append(ix.byLocal[key.Name.Local], key)
	}
	return prev
}

// Get returns the entry for kind and name.
func (ix *TypeIndex) Get(kind Kind, name QName) (*TypeIndexEntry, bool) {
	e, ok := ix.entries[IndexKey{Kind: kind, Name: name}]
	return e, ok
}

// Lookup returns the first entry for name among the target kinds, in
// lookup precedence order.
func (ix *TypeIndex) Lookup(name QName, targets KindSet) (*TypeIndexEntry, bool) {
	for _, k := range targets.Kinds() {
		if e, ok := ix.Get(k, name); ok {
			return e, true
		}
	}
	return nil, false
}

// ByLocalName returns every entry with the given local name, sorted.
func (ix *TypeIndex) ByLocalName(local string) []*TypeIndexEntry {
	keys := ix.byLocal[local]
	out := make([]*TypeIndexEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, ix.entries[k])
	}
	sortEntries(out)
	return out
}

// Len returns the number of entries.
func (ix *TypeIndex) Len() int {
	return len(ix.entries)
}

// Entries returns all entries sorted by name, then kind.
func (ix *TypeIndex) Entries() []*TypeIndexEntry {
	out := make([]*TypeIndexEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Namespaces returns the distinct namespaces of indexed names, sorted.
func (ix *TypeIndex) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range ix.entries {
		if !seen[k.Name.Namespace] {
			seen[k.Name.Namespace] = true
			out = append(out, k.Name.Namespace)
		}
	}
	slices.Sort(out)
	return out
}

// Names returns the distinct local names indexed under namespace, sorted.
func (ix *TypeIndex) Names(namespace string) []string {
	seen := make(map[string]bool)
	var out []string
	for k := range ix.entries {
		if k.Name.Namespace == namespace && !seen[k.Name.Local] {
			seen[k.Name.Local] = true
			out = append(out, k.Name.Local)
		}
	}
	slices.Sort(out)
	return out
}

// CountByKind returns the number of entries per kind.
func (ix *TypeIndex) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for k := range ix.entries {
		counts[k.Kind]++
	}
	return counts
}

func sortEntries(entries []*TypeIndexEntry) {
	slices.SortFunc(entries, func(a, b *TypeIndexEntry) int {
		if c := a.Name.Compare(b.Name); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})
}

// Statistics summarizes a repository.
type Statistics struct {
	Schemas         int `json:"schemas"`
	Types           int `json:"types"`
	Namespaces      int `json:"namespaces"`
	Elements        int `json:"elements"`
	ComplexTypes    int `json:"complexTypes"`
	SimpleTypes     int `json:"simpleTypes"`
	Groups          int `json:"groups"`
	AttributeGroups int `json:"attributeGroups"`
}

// ResolvedResult is the outcome of looking up a name in a repository.
type ResolvedResult struct {
	Query      string
	Resolved   bool
	Name       QName
	Kind       Kind
	Namespace  string
	Document   string      // originating document path, empty for built-ins
	Definition Declaration // nil unless Resolved
	Builtin    bool
}

// Finder looks up names against a built index.
type Finder interface {
	// FindType resolves a Clark ({ns}local), prefixed or bare name.
	FindType(name string) (*ResolvedResult, bool)
}

// Suggestion is a "did you mean" candidate for an unresolved name.
type Suggestion struct {
	Text        string  `json:"text" yaml:"text"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
	Explanation string  `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}
