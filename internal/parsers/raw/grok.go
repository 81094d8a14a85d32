// Package raw provides grok-style pattern definitions for terminal PNR line parsing.
package raw

import "pnr_parser/internal/patterns"

// Formats defines the known raw segment line shapes.
var Formats = []patterns.Format{
	// GDS itinerary/availability line.
	// Example: 1 AA 100 Y 05JAN 1 JFKLAX 1234 1430
	// Example: 2 IB6845 J 25DIC 7 MADEZE HK2 2355 0835
	// Groups: airline, flight, cabin, day, month, from, to, dep, arr
	// Day-of-week and status tokens are consumed but not captured.
	{
		Name: "segment_line",
		Pattern: `(?P<airline>{AIRLINE})\s?(?P<flight>{FLTNUM})\s+(?P<cabin>{CABIN})\s+` +
			`(?P<day>{DAY})(?P<month>{MONTH3})(?:\s+{DOW})?\s+` +
			`(?P<from>{IATA})\s?(?P<to>{IATA})(?:\s+{STATUS})?\s+` +
			`(?P<dep>{HHMM})\s+(?P<arr>{HHMM})`,
		Fields: []string{"airline", "flight", "cabin", "day", "month", "from", "to", "dep", "arr"},
	},
}
