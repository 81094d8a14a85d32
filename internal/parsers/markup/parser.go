// Package markup extracts flight segments from AIR/AÉREO itinerary tables.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/registry"
	"pnr_parser/internal/textutil"
)

// A flight row carries exactly this many direct cells; header and spacer
// rows have other widths.
const segmentRowCells = 8

// Flight Number: 100 / Número de vuelo: 6845 (matched after folding)
var flightLabelRe = regexp.MustCompile(`FLIGHT\s*NUMBER|NUMERO\s*DE\s*VUELO`)

// detailFields maps folded sub-table labels to segment fields by substring
// containment, first hit wins. Containment tolerates label variants like
// "Duración del vuelo" or "Aircraft type".
var detailFields = []struct {
	keys []string
	set  func(*itinerary.Segment, string)
}{
	{[]string{"FLYING TIME", "TIEMPO DE VUELO", "DURACION", "DURATION"}, func(s *itinerary.Segment, v string) { s.Duration = v }},
	{[]string{"STOP", "ESCALA"}, func(s *itinerary.Segment, v string) { s.Stops = v }},
	{[]string{"TYPE", "TIPO"}, func(s *itinerary.Segment, v string) { s.Equipment = v }},
	{[]string{"OPERATED BY", "OPERADO POR"}, func(s *itinerary.Segment, v string) { s.OperatedBy = v }},
	{[]string{"SEAT", "ASIENTO"}, func(s *itinerary.Segment, v string) { s.Seat = v }},
	{[]string{"BAG", "EQUIPAJE"}, func(s *itinerary.Segment, v string) { s.Bags = v }},
}

// Result represents the segments extracted from an itinerary table.
type Result struct {
	Segments []itinerary.Segment `json:"segments"`
}

func (r *Result) Kind() string { return "segments" }

// SegmentList returns the extracted segments in row order.
func (r *Result) SegmentList() []itinerary.Segment { return r.Segments }

// Parser extracts segments from markup itineraries. Fields are positional:
// cell 0 is the airline, cells 1-6 hold "label: value" pairs, cell 7 nests a
// detail sub-table.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "markup_segments" }
func (p *Parser) Formats() []pnr.Format { return []pnr.Format{pnr.FormatMarkup} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToLower(text), "<tr")
}

func (p *Parser) Parse(doc *pnr.Document) registry.Result {
	root := doc.Root()
	if root == nil {
		return nil
	}

	result := &Result{}
	root.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() != segmentRowCells {
			return
		}
		if !flightLabelRe.MatchString(textutil.Fold(cells.Eq(1).Text())) {
			return
		}

		seg := itinerary.Segment{
			Idx:          len(result.Segments) + 1,
			Airline:      textutil.Clean(cells.Eq(0).Text()),
			FlightNumber: trailingToken(cellValue(cells.Eq(1))),
			Cabin:        cellValue(cells.Eq(2)),
			From:         cellValue(cells.Eq(3)),
			To:           cellValue(cells.Eq(4)),
			DepText:      cellValue(cells.Eq(5)),
			ArrText:      cellValue(cells.Eq(6)),
		}
		fillDetails(&seg, cells.Eq(7))
		result.Segments = append(result.Segments, seg)
	})

	// Must have some data.
	if len(result.Segments) == 0 {
		return nil
	}

	return result
}

// cellValue returns the cleaned text after the first colon, or the whole
// cell text when no colon is present.
func cellValue(cell *goquery.Selection) string {
	text := textutil.Clean(cell.Text())
	if i := strings.Index(text, ":"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return text
}

// trailingToken returns the last whitespace-separated token of s.
func trailingToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// fillDetails walks the label/value row pairs of the detail sub-table in
// cell 7 and fills the matching segment fields.
func fillDetails(seg *itinerary.Segment, cell *goquery.Selection) {
	cell.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		pair := row.ChildrenFiltered("td, th")
		if pair.Length() < 2 {
			return
		}
		label := textutil.Label(pair.Eq(0).Text())
		value := textutil.Clean(pair.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		for _, f := range detailFields {
			if containsAnyKey(label, f.keys) {
				f.set(seg, value)
				return
			}
		}
	})
}

func containsAnyKey(label string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
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
		trace.QuickCheck.Reason = "No <tr> rows found"
		return trace
	}

	root := doc.Root()
	if root == nil {
		trace.QuickCheck.Reason = "Markup did not parse"
		return trace
	}

	// One extractor entry per row: cell count, and the header cell when the
	// width fingerprint holds.
	root.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		ext := registry.Extractor{
			Name:    fmt.Sprintf("row_%d", i),
			Pattern: flightLabelRe.String(),
		}
		if cells.Length() != segmentRowCells {
			ext.Value = fmt.Sprintf("%d cells", cells.Length())
			trace.Extractors = append(trace.Extractors, ext)
			return
		}
		header := textutil.Fold(cells.Eq(1).Text())
		if flightLabelRe.MatchString(header) {
			ext.Matched = true
			ext.Value = cellValue(cells.Eq(1))
			trace.Matched = true
		} else {
			ext.Value = header
		}
		trace.Extractors = append(trace.Extractors, ext)
	})

	return trace
}
