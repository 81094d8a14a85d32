// Package money parses locale-ambiguous numeric strings and currency-coded
// amounts, and renders the canonical 2-decimal display form used everywhere
// downstream.
package money

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Money is a currency-coded amount recovered from text.
type Money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

var (
	// USD 100.00 or EUR1.234,56 or GBP 900
	moneyRe = regexp.MustCompile(`\b([A-Z]{3})\s?(\d(?:[\d.,]*\d)?)`)

	// 12,5 or 1234,56 (decimal comma: exactly 1-2 trailing digits)
	decimalCommaRe = regexp.MustCompile(`,\d{1,2}$`)

	// 12.5 or 1234.56
	decimalDotRe = regexp.MustCompile(`\.\d{1,2}$`)
)

// ParseLocaleNumber disambiguates which of '.'/',' is the decimal separator:
// with both present the one appearing last wins and the other is stripped as
// a thousands separator; a lone comma or dot is decimal only when followed by
// exactly 1-2 digits at the end of the string. Returns NaN on failure;
// callers must check with math.IsNaN.
func ParseLocaleNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if decimalCommaRe.MatchString(s) && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if !decimalDotRe.MatchString(s) || strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ParseMoneyRaw extracts the first currency-coded amount from s, matching
// `<3 uppercase letters><optional space><digits with . or , separators>`.
func ParseMoneyRaw(s string) (Money, bool) {
	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return Money{}, false
	}
	amount := ParseLocaleNumber(m[2])
	if math.IsNaN(amount) {
		return Money{}, false
	}
	return Money{Currency: m[1], Amount: amount}, true
}

// FormatAmount renders n with exactly 2 decimal places and no thousands
// separator.
func FormatAmount(n float64) string {
	return strconv.FormatFloat(n, 'f', 2, 64)
}

// FormatMoney renders the canonical "<CCY> <amount>" display form.
func FormatMoney(currency string, n float64) string {
	return fmt.Sprintf("%s %s", currency, FormatAmount(n))
}
