package search

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// SimilarityScore returns 1 - levenshtein(a, b) / max(len(a), len(b)),
// compared case-insensitively and counted in runes. Two empty strings
// score 1.0; an empty string against a non-empty one scores 0.0.
func SimilarityScore(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(max(la, lb))
}
