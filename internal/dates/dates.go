// Package dates resolves bilingual (Spanish/English) month tokens and loose
// "<day> <month> <H:MM>" date fragments within a caller-supplied year. All
// times are naive wall-clock values carried in UTC.
package dates

import (
	"regexp"
	"strconv"
	"time"

	"pnr_parser/internal/textutil"
)

// spanishMonths holds the Spanish keys that do not collide with the English
// set: the four distinct short forms plus the full month names. 0-based.
var spanishMonths = map[string]int{
	"ENE": 0, "ABR": 3, "AGO": 7, "DIC": 11,
	"ENERO":      0,
	"FEBRERO":    1,
	"MARZO":      2,
	"ABRIL":      3,
	"MAYO":       4,
	"JUNIO":      5,
	"JULIO":      6,
	"AGOSTO":     7,
	"SEPTIEMBRE": 8,
	"SETIEMBRE":  8,
	"OCTUBRE":    9,
	"NOVIEMBRE":  10,
	"DICIEMBRE":  11,
}

// englishMonths also serves the Spanish 3-letter forms that collide with
// English (FEB, MAR, MAY, JUN, JUL, SEP, OCT, NOV). 0-based.
var englishMonths = map[string]int{
	"JAN": 0, "FEB": 1, "MAR": 2, "APR": 3, "MAY": 4, "JUN": 5,
	"JUL": 6, "AUG": 7, "SEP": 8, "OCT": 9, "NOV": 10, "DEC": 11,
	"JANUARY":   0,
	"FEBRUARY":  1,
	"MARCH":     2,
	"APRIL":     3,
	"JUNE":      5,
	"JULY":      6,
	"AUGUST":    7,
	"SEPTEMBER": 8,
	"OCTOBER":   9,
	"NOVEMBER":  10,
	"DECEMBER":  11,
}

// 25 Dic 8:05 or 05 JAN 12:34 or 7 Septiembre 19:45
var looseDateTimeRe = regexp.MustCompile(`\b(\d{1,2})\s+(\p{L}{3,})\.?\s+(\d{1,2}):(\d{2})`)

// MonthFromToken resolves a month token to its 0-based index, trying the
// full word first and then the 3-letter prefix, Spanish table before
// English. Unknown tokens report ok=false, never a default month.
func MonthFromToken(tok string) (int, bool) {
	t := textutil.Fold(textutil.Clean(tok))
	if t == "" {
		return 0, false
	}
	if m, ok := spanishMonths[t]; ok {
		return m, true
	}
	if m, ok := englishMonths[t]; ok {
		return m, true
	}
	if len(t) < 3 {
		return 0, false
	}
	p := t[:3]
	if m, ok := spanishMonths[p]; ok {
		return m, true
	}
	if m, ok := englishMonths[p]; ok {
		return m, true
	}
	return 0, false
}

// ParseLoose parses the first "<day> <month> <H:MM>" fragment in text and
// builds a date at that day/month/time within baseYear. The month token may
// be a 3+ letter abbreviation or a full word, accented or not. Reports
// ok=false when the shape is absent or the month token is unrecognized.
func ParseLoose(text string, baseYear int) (time.Time, bool) {
	m := looseDateTimeRe.FindStringSubmatch(textutil.Clean(text))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := MonthFromToken(m[2])
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	return time.Date(baseYear, time.Month(month+1), day, hour, minute, 0, 0, time.UTC), true
}
