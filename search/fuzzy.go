// Package search provides term search, fuzzy suggestions and batch lookup
// over a built Type Index.
package search

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/fwojciec/xsdpack"
)

// FuzzyMatcher suggests indexed names close to a query by edit distance.
type FuzzyMatcher struct {
	index *xsdpack.TypeIndex
	kinds xsdpack.KindSet
}

// NewFuzzyMatcher creates a matcher over every kind in index.
func NewFuzzyMatcher(index *xsdpack.TypeIndex) *FuzzyMatcher {
	return &FuzzyMatcher{index: index, kinds: xsdpack.TargetsAll}
}

// WithKinds returns a copy of the matcher restricted to kinds.
func (m *FuzzyMatcher) WithKinds(kinds xsdpack.KindSet) *FuzzyMatcher {
	c := *m
	c.kinds = kinds
	return &c
}

// SimilarityScore returns the normalized edit-distance similarity of a and b.
func (m *FuzzyMatcher) SimilarityScore(a, b string) float64 {
	return SimilarityScore(a, b)
}

// FindSimilarTypes returns indexed names whose local part is at least
// minSimilarity similar to the local part of query, most similar first.
// query may be a Clark, prefixed or bare name. A limit of zero or less
// returns every match.
func (m *FuzzyMatcher) FindSimilarTypes(query string, limit int, minSimilarity float64) []xsdpack.Suggestion {
	if m.index == nil {
		return nil
	}
	local := query
	namespace := ""
	if name, ok := xsdpack.ParseClark(query); ok {
		local, namespace = name.Local, name.Namespace
	} else {
		_, local = xsdpack.SplitPrefixed(query)
	}

	type scored struct {
		suggestion xsdpack.Suggestion
		sameNS     bool
	}
	best := make(map[string]scored)
	for _, e := range m.index.Entries() {
		if !m.kinds.Has(e.Kind) {
			continue
		}
		score := SimilarityScore(local, e.Name.Local)
		if score < minSimilarity {
			continue
		}
		text := e.Name.String()
		if prev, ok := best[text]; ok && prev.suggestion.Similarity >= score {
			continue
		}
		best[text] = scored{
			suggestion: xsdpack.Suggestion{
				Text:        text,
				Similarity:  score,
				Explanation: explain(e, score),
			},
			sameNS: namespace != "" && e.Name.Namespace == namespace,
		}
	}

	candidates := make([]scored, 0, len(best))
	for _, s := range best {
		candidates = append(candidates, s)
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.suggestion.Similarity, a.suggestion.Similarity); c != 0 {
			return c
		}
		if a.sameNS != b.sameNS {
			if a.sameNS {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.suggestion.Text, b.suggestion.Text)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]xsdpack.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.suggestion)
	}
	return out
}

func explain(e *xsdpack.TypeIndexEntry, score float64) string {
	ns := e.Name.Namespace
	if ns == "" {
		ns = "no namespace"
	}
	return fmt.Sprintf("%s %q in %s (%.0f%% similar)", e.Kind, e.Name.Local, ns, score*100)
}
