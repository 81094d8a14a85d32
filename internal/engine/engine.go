// Package engine converts reservation text into a structured itinerary.
//
// A conversion is synchronous and never fails: classification picks the
// document format, the registered parsers extract segments and metadata,
// and the reconciler finalizes dates, transit gaps, and pricing. Anything
// unparseable degrades to absent fields.
package engine

import (
	"time"

	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/reconcile"
	"pnr_parser/internal/registry"

	// Register all extraction parsers.
	_ "pnr_parser/internal/parsers"
)

// Consumer-side views of the parser results; the registry only knows
// registry.Result.
type segmentsResult interface {
	SegmentList() []itinerary.Segment
}

type fareResult interface {
	FareSummary() *itinerary.FareSummary
}

type metaResult interface {
	PassengerCount() int
	BagAllowance() string
}

// Convert parses text using the current year as the date base.
func Convert(text string) *itinerary.ParseResult {
	return ConvertAt(text, time.Now().Year())
}

// ConvertAt parses text with an explicit base year for date resolution.
// Unparseable input yields an empty segment list with whatever metadata
// could still be detected, never an error.
func ConvertAt(text string, baseYear int) *itinerary.ParseResult {
	reg := registry.Default()
	reg.Sort()

	doc := pnr.New(text)
	result := &itinerary.ParseResult{}

	for _, res := range reg.Dispatch(doc) {
		switch r := res.(type) {
		case segmentsResult:
			result.Segments = append(result.Segments, r.SegmentList()...)
		case fareResult:
			result.Meta.Fare = r.FareSummary()
		case metaResult:
			if n := r.PassengerCount(); n > 0 {
				result.Meta.Passengers = n
			}
			if b := r.BagAllowance(); b != "" {
				result.Meta.Bags = b
			}
		}
	}

	// Idx reflects the final ordered list regardless of which extractor
	// produced each segment.
	for i := range result.Segments {
		result.Segments[i].Idx = i + 1
	}

	reconcile.Finalize(result, baseYear)

	return result
}
