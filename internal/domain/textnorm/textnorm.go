// Package textnorm cleans free-text search terms before they reach the ML model.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer maps a raw search term onto its cleaned form. An empty result means
// the term carries nothing searchable.
type Normalizer func(term string) string

// Clean applies NFKC normalisation and case folding, replaces every rune that is
// neither a letter nor a digit with a space, and collapses whitespace.
func Clean(term string) string {
	folded := cases.Fold().String(norm.NFKC.String(term))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
