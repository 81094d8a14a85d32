// Package patterns provides the shared grammar fragments and the pattern
// compiler used by the PNR extraction parsers.
// This file contains the grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern
// composition. These are referenced in format patterns using {PATTERN_NAME}
// syntax.
var BasePatterns = map[string]string{
	// Carrier and flight identifiers.
	// 2-character airline designator, letter first (IB, AA, U2-style codes
	// put the digit second).
	"AIRLINE": `[A-Z][A-Z0-9]`,
	"FLTNUM":  `\d{1,4}`, // flight-number tail
	"CABIN":   `[A-Z]`,   // booking/cabin class letter

	// Airports.
	"IATA": `[A-Z]{3}`,

	// Dates and times.
	"DAY":    `\d{1,2}`,
	"MONTH3": `[A-Z]{3}`,
	"HHMM":   `\d{3,4}`, // terminal time token: 805 or 0805 or 1430
	"DOW":    `[A-Z0-9]{1,2}`, // day-of-week token: 1..7, SU, MO

	// Availability/status codes: HK1, SS2, RR.
	"STATUS": `[A-Z]{2}\d{0,2}`,

	// Money.
	"CCY":    `[A-Z]{3}`,
	"AMOUNT": `\d(?:[\d.,]*\d)?`,
}
