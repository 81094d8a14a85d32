// Package itinerary defines the structured output of a PNR conversion.
package itinerary

import "time"

// Price is a per-passenger share of the booking total attached to a segment.
type Price struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Raw      string  `json:"raw"` // display form, e.g. "USD 100.00"
}

// FareSummary carries the booking-level fare breakdown. The display fields
// hold "CCY amount" strings; the numeric fields back calculations.
type FareSummary struct {
	Currency    string  `json:"currency,omitempty"`
	Base        string  `json:"base,omitempty"`
	BaseAmount  float64 `json:"base_amount,omitempty"`
	Taxes       string  `json:"taxes,omitempty"`
	TaxesAmount float64 `json:"taxes_amount,omitempty"`
	Total       string  `json:"total,omitempty"`
	TotalAmount float64 `json:"total_amount,omitempty"`
}

// PnrMeta is booking-level data found outside the segment table.
type PnrMeta struct {
	Passengers int          `json:"passengers,omitempty"`
	Bags       string       `json:"bags,omitempty"`
	Fare       *FareSummary `json:"fare,omitempty"`
	Policies   []string     `json:"policies,omitempty"`
}

// Segment is one flight leg. DepText and ArrText keep the source's own
// wording; DepDate and ArrDate are set only when that text resolved to a
// wall-clock time.
type Segment struct {
	Idx          int    `json:"idx"`
	Airline      string `json:"airline,omitempty"`
	FlightNumber string `json:"flight_number,omitempty"`
	Cabin        string `json:"cabin,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`

	DepText string     `json:"dep_text,omitempty"`
	ArrText string     `json:"arr_text,omitempty"`
	DepDate *time.Time `json:"dep_date,omitempty"`
	ArrDate *time.Time `json:"arr_date,omitempty"`

	Duration   string `json:"duration,omitempty"`
	Stops      string `json:"stops,omitempty"`
	Equipment  string `json:"equipment,omitempty"`
	OperatedBy string `json:"operated_by,omitempty"`
	Seat       string `json:"seat,omitempty"`
	Bags       string `json:"bags,omitempty"`

	TransitToNext string `json:"transit_to_next,omitempty"`
	Price         *Price `json:"price,omitempty"`
}

// ParseResult is a complete conversion: booking metadata plus segments in
// document order.
type ParseResult struct {
	Meta     PnrMeta   `json:"meta"`
	Segments []Segment `json:"segments"`
}
