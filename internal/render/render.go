// Package render formats a finished itinerary for display. The engine takes
// no dependency on presentation; language and feature toggles live entirely
// here.
package render

import (
	"fmt"
	"html"
	"strings"

	"pnr_parser/internal/itinerary"
)

// Options selects the output language and which derived fields to show.
type Options struct {
	Language     string // "en" or "es"; unknown values fall back to "en"
	ShowDuration bool
	ShowTransit  bool
	ShowClass    bool
	ShowBags     bool
	ShowPrice    bool
}

// DefaultOptions shows everything in English.
func DefaultOptions() Options {
	return Options{
		Language:     "en",
		ShowDuration: true,
		ShowTransit:  true,
		ShowClass:    true,
		ShowBags:     true,
		ShowPrice:    true,
	}
}

type labels struct {
	flight     string
	route      string
	departure  string
	arrival    string
	duration   string
	transit    string
	class      string
	bags       string
	price      string
	passengers string
	fare       string
	taxes      string
	total      string
}

var labelTable = map[string]labels{
	"en": {
		flight:     "Flight",
		route:      "Route",
		departure:  "Departure",
		arrival:    "Arrival",
		duration:   "Duration",
		transit:    "Transit",
		class:      "Class",
		bags:       "Bags",
		price:      "Price",
		passengers: "Passengers",
		fare:       "Fare",
		taxes:      "Taxes",
		total:      "Total",
	},
	"es": {
		flight:     "Vuelo",
		route:      "Ruta",
		departure:  "Salida",
		arrival:    "Llegada",
		duration:   "Duración",
		transit:    "Conexión",
		class:      "Clase",
		bags:       "Equipaje",
		price:      "Precio",
		passengers: "Pasajeros",
		fare:       "Tarifa",
		taxes:      "Impuestos",
		total:      "Total",
	},
}

func tableFor(language string) labels {
	if l, ok := labelTable[language]; ok {
		return l
	}
	return labelTable["en"]
}

// flightDisplay joins airline and flight number unless the extractor already
// fused them (the raw path does).
func flightDisplay(seg itinerary.Segment) string {
	if seg.Airline != "" && !strings.HasPrefix(seg.FlightNumber, seg.Airline) {
		return seg.Airline + " " + seg.FlightNumber
	}
	if seg.FlightNumber != "" {
		return seg.FlightNumber
	}
	return seg.Airline
}

func routeDisplay(seg itinerary.Segment) string {
	switch {
	case seg.From != "" && seg.To != "":
		return seg.From + "-" + seg.To
	case seg.From != "":
		return seg.From
	default:
		return seg.To
	}
}

// Text renders the itinerary as plain text, one block per segment followed
// by the booking metadata.
func Text(result *itinerary.ParseResult, opts Options) string {
	l := tableFor(opts.Language)
	var b strings.Builder

	for _, seg := range result.Segments {
		fmt.Fprintf(&b, "%d. %s %s\n", seg.Idx, flightDisplay(seg), routeDisplay(seg))
		if seg.DepText != "" || seg.ArrText != "" {
			fmt.Fprintf(&b, "   %s -> %s\n", seg.DepText, seg.ArrText)
		}
		if opts.ShowDuration && seg.Duration != "" {
			fmt.Fprintf(&b, "   %s: %s\n", l.duration, seg.Duration)
		}
		if opts.ShowClass && seg.Cabin != "" {
			fmt.Fprintf(&b, "   %s: %s\n", l.class, seg.Cabin)
		}
		if opts.ShowBags && seg.Bags != "" {
			fmt.Fprintf(&b, "   %s: %s\n", l.bags, seg.Bags)
		}
		if opts.ShowPrice && seg.Price != nil {
			fmt.Fprintf(&b, "   %s: %s\n", l.price, seg.Price.Raw)
		}
		if opts.ShowTransit && seg.TransitToNext != "" {
			fmt.Fprintf(&b, "   %s: %s\n", l.transit, seg.TransitToNext)
		}
	}

	if meta := metaLines(result, opts, l); len(meta) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(meta, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

func metaLines(result *itinerary.ParseResult, opts Options, l labels) []string {
	var lines []string
	if result.Meta.Passengers > 0 {
		lines = append(lines, fmt.Sprintf("%s: %d", l.passengers, result.Meta.Passengers))
	}
	if opts.ShowBags && result.Meta.Bags != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", l.bags, result.Meta.Bags))
	}
	if opts.ShowPrice && result.Meta.Fare != nil {
		fare := result.Meta.Fare
		if fare.Base != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", l.fare, fare.Base))
		}
		if fare.Taxes != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", l.taxes, fare.Taxes))
		}
		if fare.Total != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", l.total, fare.Total))
		}
	}
	return lines
}

type column struct {
	header string
	value  func(itinerary.Segment) string
}

func columns(opts Options, l labels) []column {
	cols := []column{
		{l.flight, flightDisplay},
		{l.route, routeDisplay},
		{l.departure, func(s itinerary.Segment) string { return s.DepText }},
		{l.arrival, func(s itinerary.Segment) string { return s.ArrText }},
	}
	if opts.ShowDuration {
		cols = append(cols, column{l.duration, func(s itinerary.Segment) string { return s.Duration }})
	}
	if opts.ShowClass {
		cols = append(cols, column{l.class, func(s itinerary.Segment) string { return s.Cabin }})
	}
	if opts.ShowBags {
		cols = append(cols, column{l.bags, func(s itinerary.Segment) string { return s.Bags }})
	}
	if opts.ShowPrice {
		cols = append(cols, column{l.price, func(s itinerary.Segment) string {
			if s.Price == nil {
				return ""
			}
			return s.Price.Raw
		}})
	}
	if opts.ShowTransit {
		cols = append(cols, column{l.transit, func(s itinerary.Segment) string { return s.TransitToNext }})
	}
	return cols
}

// HTML renders the itinerary as an escaped markup table followed by the
// booking metadata.
func HTML(result *itinerary.ParseResult, opts Options) string {
	l := tableFor(opts.Language)
	cols := columns(opts, l)
	var b strings.Builder

	b.WriteString("<table>\n<tr>")
	for _, c := range cols {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(c.header))
	}
	b.WriteString("</tr>\n")

	for _, seg := range result.Segments {
		b.WriteString("<tr>")
		for _, c := range cols {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(c.value(seg)))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")

	for _, line := range metaLines(result, opts, l) {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(line))
	}

	return b.String()
}
