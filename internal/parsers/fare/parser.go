// Package fare extracts the booking-level fare breakdown from markup documents.
package fare

import (
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/money"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/registry"
	"pnr_parser/internal/textutil"
)

// Inline label+money patterns for the free-text fallback, matched against
// folded cell text.
var (
	// FARE: USD 512.40 / TARIFA - EUR 1.234,56
	baseInlineRe = regexp.MustCompile(`\b(?:FARE|TARIFA)\s*[:\-]?\s*([A-Z]{3})\s?(\d(?:[\d.,]*\d)?)`)

	// TAXES: USD 87.60 / IMPUESTOS EUR 98,70
	taxesInlineRe = regexp.MustCompile(`\b(?:TAXES|IMPUESTOS)\s*[:\-]?\s*([A-Z]{3})\s?(\d(?:[\d.,]*\d)?)`)

	// TOTAL: USD 600.00 (word-anchored so SUBTOTAL does not count)
	totalInlineRe = regexp.MustCompile(`\bTOTAL\s*[:\-]?\s*([A-Z]{3})\s?(\d(?:[\d.,]*\d)?)`)
)

// Result carries the fare breakdown found in the document.
type Result struct {
	Fare itinerary.FareSummary `json:"fare"`
}

func (r *Result) Kind() string { return "fare" }

// FareSummary returns the extracted breakdown.
func (r *Result) FareSummary() *itinerary.FareSummary { return &r.Fare }

// Parser extracts base/taxes/total from itinerary tables. Paired label/value
// cells are tried first; fields still unset afterwards fall back to an
// inline free-text scan of every leaf cell.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "markup_fare" }
func (p *Parser) Formats() []pnr.Format { return []pnr.Format{pnr.FormatMarkup} }
func (p *Parser) Priority() int         { return 20 }

func (p *Parser) QuickCheck(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "fare") ||
		strings.Contains(lower, "tarifa") ||
		strings.Contains(lower, "total") ||
		strings.Contains(lower, "tax") ||
		strings.Contains(lower, "impuesto")
}

func (p *Parser) Parse(doc *pnr.Document) registry.Result {
	root := doc.Root()
	if root == nil {
		return nil
	}

	base, taxes, total := extract(leafCells(root))
	if base == nil && taxes == nil && total == nil {
		return nil
	}

	summary := itinerary.FareSummary{}
	if base != nil {
		summary.Base = money.FormatMoney(base.Currency, base.Amount)
		summary.BaseAmount = base.Amount
	}
	if taxes != nil {
		summary.Taxes = money.FormatMoney(taxes.Currency, taxes.Amount)
		summary.TaxesAmount = taxes.Amount
	}
	if total != nil {
		summary.Total = money.FormatMoney(total.Currency, total.Amount)
		summary.TotalAmount = total.Amount
	}

	// Currency follows the total, falling back to taxes then base.
	switch {
	case total != nil:
		summary.Currency = total.Currency
	case taxes != nil:
		summary.Currency = taxes.Currency
	default:
		summary.Currency = base.Currency
	}

	return &Result{Fare: summary}
}

// extract runs both strategies over the leaf cell texts.
func extract(cells []string) (base, taxes, total *money.Money) {
	// Strategy A: a label cell followed by a money cell. Last match wins
	// when a label repeats.
	for i := 0; i+1 < len(cells); i++ {
		var target **money.Money
		switch textutil.Label(cells[i]) {
		case "FARE", "TARIFA":
			target = &base
		case "TAXES", "IMPUESTOS":
			target = &taxes
		case "TOTAL":
			target = &total
		default:
			continue
		}
		if m, ok := money.ParseMoneyRaw(textutil.Fold(cells[i+1])); ok {
			*target = &m
		}
	}

	// Strategy B: inline free-text scan, per field, only when strategy A
	// left it unset. Last match wins here too.
	needBase, needTaxes, needTotal := base == nil, taxes == nil, total == nil
	for _, cell := range cells {
		folded := textutil.Fold(cell)
		if needBase {
			if m, ok := inlineMoney(baseInlineRe, folded); ok {
				base = &m
			}
		}
		if needTaxes {
			if m, ok := inlineMoney(taxesInlineRe, folded); ok {
				taxes = &m
			}
		}
		if needTotal {
			if m, ok := inlineMoney(totalInlineRe, folded); ok {
				total = &m
			}
		}
	}

	return base, taxes, total
}

func inlineMoney(re *regexp.Regexp, folded string) (money.Money, bool) {
	m := re.FindStringSubmatch(folded)
	if m == nil {
		return money.Money{}, false
	}
	amount := money.ParseLocaleNumber(m[2])
	if math.IsNaN(amount) {
		return money.Money{}, false
	}
	return money.Money{Currency: m[1], Amount: amount}, true
}

// leafCells returns the cleaned text of every table cell that does not nest
// another table, in document order.
func leafCells(root *goquery.Document) []string {
	var cells []string
	root.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		if cell.Find("table").Length() > 0 {
			return
		}
		cells = append(cells, textutil.Clean(cell.Text()))
	})
	return cells
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
		trace.QuickCheck.Reason = "No fare/taxes/total keyword found"
		return trace
	}

	root := doc.Root()
	if root == nil {
		trace.QuickCheck.Reason = "Markup did not parse"
		return trace
	}

	base, taxes, total := extract(leafCells(root))

	fields := []struct {
		name string
		re   *regexp.Regexp
		m    *money.Money
	}{
		{"fare_base", baseInlineRe, base},
		{"fare_taxes", taxesInlineRe, taxes},
		{"fare_total", totalInlineRe, total},
	}
	for _, f := range fields {
		ext := registry.Extractor{
			Name:    f.name,
			Pattern: f.re.String(),
		}
		if f.m != nil {
			ext.Matched = true
			ext.Value = money.FormatMoney(f.m.Currency, f.m.Amount)
			trace.Matched = true
		}
		trace.Extractors = append(trace.Extractors, ext)
	}

	return trace
}
