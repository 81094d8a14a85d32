// Package patterns provides the shared grammar fragments and the pattern
// compiler used by the PNR extraction parsers.
package patterns

// FormatHHMM converts a 3-4 digit terminal time token into colon form:
// "805" -> "8:05", "1430" -> "14:30". Returns "" for tokens of the wrong
// length. No range validation is attempted; out-of-range values degrade
// downstream like any other unparseable date fragment.
func FormatHHMM(tok string) string {
	if len(tok) < 3 || len(tok) > 4 {
		return ""
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return tok[:len(tok)-2] + ":" + tok[len(tok)-2:]
}
