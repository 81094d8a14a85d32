// Package raw extracts flight segments from terminal-style PNR dumps.
package raw

import (
	"strings"
	"sync"

	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/patterns"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/registry"
)

// Grok compiler singleton.
var (
	grokCompiler *patterns.Compiler
	grokOnce     sync.Once
	grokErr      error
)

func getCompiler() (*patterns.Compiler, error) {
	grokOnce.Do(func() {
		grokCompiler = patterns.NewCompiler(Formats, nil)
		grokErr = grokCompiler.Compile()
	})
	return grokCompiler, grokErr
}

// Result represents the segments extracted from raw PNR lines.
type Result struct {
	Segments []itinerary.Segment `json:"segments"`
}

func (r *Result) Kind() string { return "segments" }

// SegmentList returns the extracted segments in line order.
func (r *Result) SegmentList() []itinerary.Segment { return r.Segments }

// Parser extracts segments from raw terminal output, one per matching line.
// Lines that don't fit the grammar are skipped; this is a best-effort filter,
// not a full GDS grammar.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "raw_segments" }
func (p *Parser) Formats() []pnr.Format { return []pnr.Format{pnr.FormatRaw} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

func (p *Parser) Parse(doc *pnr.Document) registry.Result {
	if doc.Text == "" {
		return nil
	}

	compiler, err := getCompiler()
	if err != nil {
		return nil
	}

	result := &Result{}
	for _, line := range doc.Lines() {
		match := compiler.Parse(line)
		if match == nil {
			continue
		}

		c := match.Captures
		seg := itinerary.Segment{
			Idx:     len(result.Segments) + 1,
			Airline: c["airline"],
			// Raw lines carry the designator split; downstream wants it fused.
			FlightNumber: c["airline"] + c["flight"],
			Cabin:        c["cabin"],
			From:         c["from"],
			To:           c["to"],
		}
		// Synthesize "<day> <month> <HH:MM>" so the date resolver sees the
		// same shape the markup path produces.
		if hm := patterns.FormatHHMM(c["dep"]); hm != "" {
			seg.DepText = c["day"] + " " + c["month"] + " " + hm
		}
		if hm := patterns.FormatHHMM(c["arr"]); hm != "" {
			seg.ArrText = c["day"] + " " + c["month"] + " " + hm
		}
		result.Segments = append(result.Segments, seg)
	}

	// Must have some data.
	if len(result.Segments) == 0 {
		return nil
	}

	return result
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

	compiler, err := getCompiler()
	if err != nil {
		trace.QuickCheck.Reason = "Failed to get compiler: " + err.Error()
		return trace
	}

	for _, line := range doc.Lines() {
		lineTrace := compiler.ParseWithTrace(line)
		for _, ft := range lineTrace.Formats {
			trace.Formats = append(trace.Formats, registry.FormatTrace{
				Name:     ft.Name,
				Matched:  ft.Matched,
				Pattern:  ft.Pattern,
				Captures: ft.Captures,
			})
		}
		if lineTrace.Match != nil {
			trace.Matched = true
		}
	}

	return trace
}
