// Package textutil provides the text canonicalization shared by every PNR
// matcher: whitespace cleaning and case/diacritic folding.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clean replaces non-breaking spaces with ordinary spaces, collapses runs of
// whitespace to a single space, and trims the ends. Applied before every
// regex match so patterns stay whitespace-tolerant.
func Clean(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Fold uppercases s and strips combining diacritical marks after NFD
// decomposition, so accented tokens match ASCII patterns
// ("Número" -> "NUMERO", "Duración" -> "DURACION").
func Fold(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Label normalizes a table-cell label for comparison: cleaned, trailing
// colon removed, folded.
func Label(s string) string {
	s = Clean(s)
	s = strings.TrimSuffix(s, ":")
	return Fold(strings.TrimSpace(s))
}
