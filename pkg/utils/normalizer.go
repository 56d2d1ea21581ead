package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextNormalizer lowercases and strips diacritics from free-form text so
// that distribution keys and alias lookups are stable regardless of the
// vision model's casing or accent choices for a given term.
type TextNormalizer struct {
	transformer transform.Transformer
}

// NewTextNormalizer builds a TextNormalizer using NFKD decomposition,
// non-spacing-mark removal, and NFKC recomposition.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		transformer: transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFKC,
		),
	}
}

// Normalize lowercases s and strips diacritics, then trims surrounding
// whitespace. Used for category/alias normalization across distributions.
func (n *TextNormalizer) Normalize(s string) string {
	result, _, err := transform.String(n.transformer, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}

	return result
}

// Contains reports whether haystack contains needle after both are
// normalized, a case/diacritic-insensitive substring check.
func (n *TextNormalizer) Contains(haystack, needle string) bool {
	return strings.Contains(n.Normalize(haystack), n.Normalize(needle))
}
