// Package reconcile finalizes an extracted itinerary: it resolves wall-clock
// dates across year boundaries, corrects overnight arrivals, derives transit
// gaps, and allocates the booking fare across segments.
package reconcile

import (
	"fmt"
	"time"

	"pnr_parser/internal/dates"
	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/money"
)

// Finalize resolves segment dates with a running year starting at baseYear,
// then applies the overnight, transit, and fare-allocation rules in order.
// Every rule degrades to "field absent" on missing inputs.
func Finalize(result *itinerary.ParseResult, baseYear int) {
	resolveDates(result.Segments, baseYear)
	deriveTransit(result.Segments)
	allocateFare(result)
}

// resolveDates parses DepText/ArrText for each segment in order, carrying a
// running year. A departure month strictly below the previous one means the
// itinerary crossed into the next year: bump the year and re-resolve both
// dates of this segment only.
func resolveDates(segs []itinerary.Segment, baseYear int) {
	year := baseYear
	lastMonth := -1

	for i := range segs {
		seg := &segs[i]
		dep, depOK := dates.ParseLoose(seg.DepText, year)
		arr, arrOK := dates.ParseLoose(seg.ArrText, year)

		if depOK {
			m := int(dep.Month()) - 1
			if lastMonth >= 0 && m < lastMonth {
				year++
				dep, depOK = dates.ParseLoose(seg.DepText, year)
				arr, arrOK = dates.ParseLoose(seg.ArrText, year)
				m = int(dep.Month()) - 1
			}
			lastMonth = m
		}

		if depOK {
			seg.DepDate = &dep
		}
		if arrOK {
			seg.ArrDate = &arr
		}

		// Overnight arrival: a same-day wrap puts the arrival before the
		// departure; push it forward one day.
		if seg.DepDate != nil && seg.ArrDate != nil && seg.ArrDate.Before(*seg.DepDate) {
			adjusted := seg.ArrDate.Add(24 * time.Hour)
			seg.ArrDate = &adjusted
		}
	}
}

// deriveTransit fills TransitToNext for each adjacent pair whose arrival and
// following departure both resolved. A negative gap reads as unparseable
// rather than another rollover, and leaves the field unset.
func deriveTransit(segs []itinerary.Segment) {
	for i := 0; i+1 < len(segs); i++ {
		cur, next := &segs[i], &segs[i+1]
		if cur.ArrDate == nil || next.DepDate == nil {
			continue
		}
		gap := next.DepDate.Sub(*cur.ArrDate)
		if gap < 0 {
			continue
		}
		mins := int(gap.Minutes())
		cur.TransitToNext = fmt.Sprintf("%dh %dm", mins/60, mins%60)
	}
}

// allocateFare broadcasts the booking total as an equal per-segment share.
// No proportional allocation by fare class or distance is attempted.
func allocateFare(result *itinerary.ParseResult) {
	fare := result.Meta.Fare
	if fare == nil || fare.Currency == "" || fare.TotalAmount == 0 || len(result.Segments) == 0 {
		return
	}

	share := fare.TotalAmount / float64(len(result.Segments))
	for i := range result.Segments {
		result.Segments[i].Price = &itinerary.Price{
			Currency: fare.Currency,
			Amount:   share,
			Raw:      money.FormatMoney(fare.Currency, share),
		}
	}
}
