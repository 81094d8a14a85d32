// Package meta detects booking-level passenger and baggage hints in the
// document's flattened text, independent of segment structure.
package meta

import (
	"regexp"
	"strconv"
	"strings"

	"pnr_parser/internal/pnr"
	"pnr_parser/internal/registry"
)

var (
	// Passengers: 2 / PASAJEROS 2 (up to 10 non-digit chars between)
	paxForwardRe = regexp.MustCompile(`(?i)\b(?:passengers|pasajeros)\b\D{0,10}?(\d{1,3})\b`)

	// 2 passengers / 2 pasajeros
	paxReverseRe = regexp.MustCompile(`(?i)\b(\d{1,3})\D{0,10}?\b(?:passengers|pasajeros)\b`)

	// Bags: 2 pieces / Equipaje - 23 kg (captures up to 20 chars of descriptor)
	bagsLabelRe = regexp.MustCompile(`(?i)\b(?:bags?|equipajes?)\b\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9 ]{0,19})`)

	// 2PC / 1 PIECE / 2 BAGS
	bagsPiecesRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:PCS?|PIECES?|BAGS?)\b`)

	// 23KG / 23 kg
	bagsWeightRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s*KG\b`)
)

// Result carries document-level passenger and baggage hints.
type Result struct {
	Passengers int    `json:"passengers,omitempty"`
	Bags       string `json:"bags,omitempty"`
}

func (r *Result) Kind() string { return "meta" }

// PassengerCount returns the detected traveller count, 0 when absent.
func (r *Result) PassengerCount() int { return r.Passengers }

// BagAllowance returns the detected baggage descriptor, "" when absent.
func (r *Result) BagAllowance() string { return r.Bags }

// Parser runs the free-text metadata detectors. It registers for all
// formats since neither detector depends on document structure.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "meta_detectors" }
func (p *Parser) Formats() []pnr.Format { return nil }
func (p *Parser) Priority() int         { return 30 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

func (p *Parser) Parse(doc *pnr.Document) registry.Result {
	flat := doc.Flat()
	if flat == "" {
		return nil
	}

	result := &Result{}
	if n, ok := detectPassengers(flat); ok {
		result.Passengers = n
	}
	if bags, ok := detectBags(flat); ok {
		result.Bags = bags
	}

	// Must have some data.
	if result.Passengers == 0 && result.Bags == "" {
		return nil
	}

	return result
}

// detectPassengers finds a traveller count near a passengers keyword, in
// either order. The forward pattern wins when both would match.
func detectPassengers(text string) (int, bool) {
	m := paxForwardRe.FindStringSubmatch(text)
	if m == nil {
		m = paxReverseRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// detectBags tries the labelled form, then a standalone piece-count token,
// then a weight token. First successful pattern wins.
func detectBags(text string) (string, bool) {
	if m := bagsLabelRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v, true
		}
	}
	if m := bagsPiecesRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[0]), true
	}
	if m := bagsWeightRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[0]), true
	}
	return "", false
}

// ParseWithTrace implements registry.Traceable for detailed debugging.
func (p *Parser) ParseWithTrace(doc *pnr.Document) *registry.TraceResult {
	trace := &registry.TraceResult{
		ParserName: p.Name(),
	}

	quickCheckPassed := p.QuickCheck(doc.Text)
	trace.QuickCheck = &registry.QuickCheck{
		Passed: quickCheckPassed,
	}

	if !quickCheckPassed {
		trace.QuickCheck.Reason = "No digits found"
		return trace
	}

	flat := doc.Flat()

	extractors := []struct {
		name    string
		pattern *regexp.Regexp
	}{
		{"passengers_forward", paxForwardRe},
		{"passengers_reverse", paxReverseRe},
		{"bags_label", bagsLabelRe},
		{"bags_pieces", bagsPiecesRe},
		{"bags_weight", bagsWeightRe},
	}

	for _, e := range extractors {
		ext := registry.Extractor{
			Name:    e.name,
			Pattern: e.pattern.String(),
		}
		if m := e.pattern.FindStringSubmatch(flat); len(m) > 1 {
			ext.Matched = true
			ext.Value = m[1]
		}
		trace.Extractors = append(trace.Extractors, ext)
	}

	_, hasPax := detectPassengers(flat)
	_, hasBags := detectBags(flat)
	trace.Matched = hasPax || hasBags

	return trace
}
