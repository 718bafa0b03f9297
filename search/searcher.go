package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fwojciec/xsdpack"
)

// Field selects what a search term is matched against.
type Field string

// Searchable fields. FieldAll matches every field and keeps the best score.
const (
	FieldAll           Field = ""
	FieldName          Field = "name"
	FieldNamespace     Field = "namespace"
	FieldQualified     Field = "qualified"
	FieldDocumentation Field = "documentation"
)

// ParseField converts a field name. The empty string and "all" select FieldAll.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "all":
		return FieldAll, nil
	case FieldName, FieldNamespace, FieldQualified, FieldDocumentation:
		return f, nil
	}
	return "", xsdpack.Errorf(xsdpack.EINVALID, "unknown search field %q", s)
}

// Relevance scores.
const (
	ScoreSubstring = 1
	ScorePrefix    = 2
	ScoreExact     = 3
)

// Match is one search hit.
type Match struct {
	Entry *xsdpack.TypeIndexEntry
	Score int
	Field Field // field that produced the score
}

// TypeSearcher runs term searches over a Type Index.
type TypeSearcher struct {
	index *xsdpack.TypeIndex
}

// NewTypeSearcher creates a searcher over index.
func NewTypeSearcher(index *xsdpack.TypeIndex) *TypeSearcher {
	return &TypeSearcher{index: index}
}

// Search returns entries matching term in field, ranked exact > prefix >
// substring (case-insensitive). Ties go to the shorter local name, then
// to the qualified name. A limit of zero or less returns every match.
func (s *TypeSearcher) Search(term string, field Field, limit int) ([]Match, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "search term required")
	}
	fields := []Field{field}
	if field == FieldAll {
		fields = []Field{FieldName, FieldQualified, FieldNamespace, FieldDocumentation}
	}

	var matches []Match
	for _, e := range s.index.Entries() {
		best := Match{Entry: e}
		for _, f := range fields {
			if score := relevance(term, fieldValue(e, f)); score > best.Score {
				best.Score = score
				best.Field = f
			}
		}
		if best.Score > 0 {
			matches = append(matches, best)
		}
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.Entry.Name.Local), len(b.Entry.Name.Local)); c != 0 {
			return c
		}
		if c := a.Entry.Name.Compare(b.Entry.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.Kind, b.Entry.Kind)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func fieldValue(e *xsdpack.TypeIndexEntry, f Field) string {
	switch f {
	case FieldName:
		return e.Name.Local
	case FieldNamespace:
		return e.Name.Namespace
	case FieldQualified:
		return e.Name.String()
	case FieldDocumentation:
		if e.Definition == nil {
			return ""
		}
		return e.Definition.Doc()
	}
	return ""
}

// relevance scores lowered term against value.
func relevance(term, value string) int {
	if value == "" {
		return 0
	}
	value = strings.ToLower(value)
	switch {
	case value == term:
		return ScoreExact
	case strings.HasPrefix(value, term):
		return ScorePrefix
	case strings.Contains(value, term):
		return ScoreSubstring
	}
	return 0
}
