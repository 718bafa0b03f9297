package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/mock"
	"github.com/fwojciec/xsdpack/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ns = "http://example.com/codes"

func put(ix *xsdpack.TypeIndex, kind xsdpack.Kind, namespace, local, doc string) {
	var decl xsdpack.Declaration
	switch kind {
	case xsdpack.KindElement:
		decl = &xsdpack.Element{Name: local}
	case xsdpack.KindComplexType:
		decl = &xsdpack.ComplexType{Name: local, Documentation: doc}
	default:
		decl = &xsdpack.SimpleType{Name: local, Documentation: doc}
	}
	ix.Put(&xsdpack.TypeIndexEntry{
		Name:       xsdpack.QName{Namespace: namespace, Local: local},
		Kind:       kind,
		Definition: decl,
		Origin:     "codes.xsd",
	})
}

func fixtureIndex() *xsdpack.TypeIndex {
	ix := xsdpack.NewTypeIndex()
	put(ix, xsdpack.KindSimpleType, ns, "Code", "A short identifier.")
	put(ix, xsdpack.KindSimpleType, ns, "CodeType", "Identifier with a code list.")
	put(ix, xsdpack.KindComplexType, ns, "CurrencyCode", "ISO 4217 currency.")
	put(ix, xsdpack.KindComplexType, ns, "PostalCodeType", "")
	put(ix, xsdpack.KindElement, "http://example.com/other", "Amount", "")
	return ix
}

func names(matches []search.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Entry.Name.Local)
	}
	return out
}

func TestTypeSearcher_Search(t *testing.T) {
	t.Parallel()

	t.Run("ranks exact then prefix then substring", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("code", search.FieldName, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{"Code", "CodeType", "CurrencyCode", "PostalCodeType"}, names(matches))
		assert.Equal(t, search.ScoreExact, matches[0].Score)
		assert.Equal(t, search.ScorePrefix, matches[1].Score)
		assert.Equal(t, search.ScoreSubstring, matches[2].Score)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("CODETYPE", search.FieldName, 0)

		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "CodeType", matches[0].Entry.Name.Local)
		assert.Equal(t, search.ScoreExact, matches[0].Score)
	})

	t.Run("caps results at limit", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("code", search.FieldName, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"Code", "CodeType"}, names(matches))
	})

	t.Run("searches namespace field", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("other", search.FieldNamespace, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{"Amount"}, names(matches))
	})

	t.Run("searches documentation field", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("currency", search.FieldDocumentation, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{"CurrencyCode"}, names(matches))
		assert.Equal(t, search.FieldDocumentation, matches[0].Field)
	})

	t.Run("all fields keep the best score", func(t *testing.T) {
		t.Parallel()

		matches, err := search.NewTypeSearcher(fixtureIndex()).Search("iso", search.FieldAll, 0)

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, search.ScorePrefix, matches[0].Score)
	})

	t.Run("rejects empty term", func(t *testing.T) {
		t.Parallel()

		_, err := search.NewTypeSearcher(fixtureIndex()).Search("  ", search.FieldName, 0)

		assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
	})
}

func TestParseField(t *testing.T) {
	t.Parallel()

	f, err := search.ParseField("Documentation")
	require.NoError(t, err)
	assert.Equal(t, search.FieldDocumentation, f)

	f, err = search.ParseField("all")
	require.NoError(t, err)
	assert.Equal(t, search.FieldAll, f)

	_, err = search.ParseField("bogus")
	assert.Equal(t, xsdpack.EINVALID, xsdpack.ErrorCode(err))
}

func TestFuzzyMatcher(t *testing.T) {
	t.Parallel()

	t.Run("similarity score bounds", func(t *testing.T) {
		t.Parallel()

		m := search.NewFuzzyMatcher(fixtureIndex())

		assert.InDelta(t, 1.0, m.SimilarityScore("test", "test"), 1e-9)
		score := m.SimilarityScore("CodeType", "CdeType")
		assert.Greater(t, score, 0.5)
		assert.Less(t, score, 1.0)
	})

	t.Run("finds similar types sorted by similarity", func(t *testing.T) {
		t.Parallel()

		got := search.NewFuzzyMatcher(fixtureIndex()).FindSimilarTypes("CdeType", 0, 0.3)

		require.NotEmpty(t, got)
		assert.Equal(t, "{"+ns+"}CodeType", got[0].Text)
		assert.NotEmpty(t, got[0].Explanation)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
		}
	})

	t.Run("filters by minimum similarity and limit", func(t *testing.T) {
		t.Parallel()

		m := search.NewFuzzyMatcher(fixtureIndex())

		all := m.FindSimilarTypes("Code", 0, 0.0)
		strict := m.FindSimilarTypes("Code", 0, 0.99)
		limited := m.FindSimilarTypes("Code", 2, 0.0)

		assert.Len(t, all, 5)
		require.Len(t, strict, 1)
		assert.Equal(t, "{"+ns+"}Code", strict[0].Text)
		assert.Len(t, limited, 2)
	})

	t.Run("uses local part of qualified queries", func(t *testing.T) {
		t.Parallel()

		got := search.NewFuzzyMatcher(fixtureIndex()).FindSimilarTypes("{http://elsewhere}CodeTyp", 1, 0.5)

		require.Len(t, got, 1)
		assert.Equal(t, "{"+ns+"}CodeType", got[0].Text)
	})

	t.Run("restricts kinds", func(t *testing.T) {
		t.Parallel()

		got := search.NewFuzzyMatcher(fixtureIndex()).WithKinds(xsdpack.TargetsElement).FindSimilarTypes("Amount", 0, 0.0)

		require.Len(t, got, 1)
		assert.Equal(t, "{http://example.com/other}Amount", got[0].Text)
	})
}

func TestBatchTypeQuery_Execute(t *testing.T) {
	t.Parallel()

	finder := &mock.Finder{
		FindTypeFn: func(name string) (*xsdpack.ResolvedResult, bool) {
			if name == "b" {
				return nil, false
			}
			return &xsdpack.ResolvedResult{Query: name, Resolved: true, Name: xsdpack.QName{Local: name}}, true
		},
	}

	t.Run("preserves order and resolves duplicates independently", func(t *testing.T) {
		t.Parallel()

		results, err := search.NewBatchTypeQuery(finder).Execute(context.Background(), []string{"a", "b", "a"})

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Query)
		assert.True(t, results[0].Resolved)
		assert.Equal(t, "b", results[1].Query)
		assert.False(t, results[1].Resolved)
		assert.Nil(t, results[1].Result)
		assert.Equal(t, results[0], results[2])
		assert.NotSame(t, results[0].Result, results[2].Result)
	})

	t.Run("parallel execution keeps input order", func(t *testing.T) {
		t.Parallel()

		input := []string{"a", "b", "c", "d", "a", "e", "b"}
		results, err := search.NewBatchTypeQuery(finder, search.WithConcurrency(4)).Execute(context.Background(), input)

		require.NoError(t, err)
		require.Len(t, results, len(input))
		for i, name := range input {
			assert.Equal(t, name, results[i].Query)
			assert.Equal(t, name != "b", results[i].Resolved)
		}
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := search.NewBatchTypeQuery(finder).Execute(ctx, []string{"a"})

		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		t.Parallel()

		results, err := search.NewBatchTypeQuery(finder).Execute(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
