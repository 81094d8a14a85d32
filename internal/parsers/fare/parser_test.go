package fare

import (
	"testing"

	"pnr_parser/internal/pnr"
)

func TestParser_ParsePairedCells(t *testing.T) {
	parser := &Parser{}

	text := `<table>
<tr><td>Fare:</td><td>USD 512.40</td></tr>
<tr><td>Taxes:</td><td>USD 87.60</td></tr>
<tr><td>Total:</td><td>USD 600.00</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	fs := result.(*Result).Fare
	if fs.Currency != "USD" {
		t.Errorf("Currency = %q, want %q", fs.Currency, "USD")
	}
	if fs.Base != "USD 512.40" || fs.BaseAmount != 512.40 {
		t.Errorf("Base = %q/%v, want USD 512.40/512.4", fs.Base, fs.BaseAmount)
	}
	if fs.Taxes != "USD 87.60" || fs.TaxesAmount != 87.60 {
		t.Errorf("Taxes = %q/%v, want USD 87.60/87.6", fs.Taxes, fs.TaxesAmount)
	}
	if fs.Total != "USD 600.00" || fs.TotalAmount != 600.00 {
		t.Errorf("Total = %q/%v, want USD 600.00/600", fs.Total, fs.TotalAmount)
	}
}

func TestParser_ParseSpanishLocaleAmounts(t *testing.T) {
	parser := &Parser{}

	text := `<table>
<tr><td>Tarifa:</td><td>EUR 1.234,56</td></tr>
<tr><td>Impuestos:</td><td>EUR 98,70</td></tr>
<tr><td>Total:</td><td>EUR 1.333,26</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	fs := result.(*Result).Fare
	if fs.BaseAmount != 1234.56 {
		t.Errorf("BaseAmount = %v, want 1234.56", fs.BaseAmount)
	}
	if fs.Base != "EUR 1234.56" {
		t.Errorf("Base = %q, want %q (canonical form, no thousands separator)", fs.Base, "EUR 1234.56")
	}
	if fs.TaxesAmount != 98.70 {
		t.Errorf("TaxesAmount = %v, want 98.7", fs.TaxesAmount)
	}
	if fs.TotalAmount != 1333.26 {
		t.Errorf("TotalAmount = %v, want 1333.26", fs.TotalAmount)
	}
	if fs.Currency != "EUR" {
		t.Errorf("Currency = %q, want %q", fs.Currency, "EUR")
	}
}

func TestParser_ParseInlineFallback(t *testing.T) {
	parser := &Parser{}

	text := `<table>
<tr><td>Your receipt</td></tr>
<tr><td>Total: USD 600.00 charged to card ending 1234</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	fs := result.(*Result).Fare
	if fs.Total != "USD 600.00" || fs.TotalAmount != 600.00 {
		t.Errorf("Total = %q/%v, want USD 600.00/600", fs.Total, fs.TotalAmount)
	}
	if fs.Base != "" || fs.Taxes != "" {
		t.Errorf("Base/Taxes should stay empty, got %q/%q", fs.Base, fs.Taxes)
	}
	if fs.Currency != "USD" {
		t.Errorf("Currency = %q, want %q", fs.Currency, "USD")
	}
}

func TestParser_ParseInlineIgnoresSubtotal(t *testing.T) {
	parser := &Parser{}

	text := `<table>
<tr><td>Fare: USD 512.40</td></tr>
<tr><td>SUBTOTAL: USD 12.00 for seat selection</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	fs := result.(*Result).Fare
	if fs.Total != "" || fs.TotalAmount != 0 {
		t.Errorf("subtotal must not fill Total, got %q/%v", fs.Total, fs.TotalAmount)
	}
	if fs.Base != "USD 512.40" {
		t.Errorf("Base = %q, want %q", fs.Base, "USD 512.40")
	}
	// Currency falls through to base when no real total exists.
	if fs.Currency != "USD" {
		t.Errorf("Currency = %q, want %q", fs.Currency, "USD")
	}
}

func TestParser_ParseMixedStrategies(t *testing.T) {
	parser := &Parser{}

	// Total comes from a paired cell, base from inline text in another cell.
	text := `<table>
<tr><td>Tarifa EUR 1.234,56 por pasajero</td></tr>
<tr><td>Total:</td><td>EUR 1.333,26</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	fs := result.(*Result).Fare
	if fs.BaseAmount != 1234.56 {
		t.Errorf("BaseAmount = %v, want 1234.56", fs.BaseAmount)
	}
	if fs.TotalAmount != 1333.26 {
		t.Errorf("TotalAmount = %v, want 1333.26", fs.TotalAmount)
	}
}

func TestParser_ParseLastMatchWins(t *testing.T) {
	parser := &Parser{}

	text := `<table>
<tr><td>Total:</td><td>USD 100.00</td></tr>
<tr><td>Total:</td><td>USD 200.00</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if got := result.(*Result).Fare.TotalAmount; got != 200.00 {
		t.Errorf("TotalAmount = %v, want 200 (last label wins)", got)
	}
}

func TestParser_ParseCurrencyPrecedence(t *testing.T) {
	parser := &Parser{}

	// Differing currencies: total's code wins.
	text := `<table>
<tr><td>Fare:</td><td>USD 512.40</td></tr>
<tr><td>Total:</td><td>GBP 600.00</td></tr>
</table>`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if got := result.(*Result).Fare.Currency; got != "GBP" {
		t.Errorf("Currency = %q, want %q", got, "GBP")
	}
}

func TestParser_ParseNoFare(t *testing.T) {
	parser := &Parser{}

	text := `<table><tr><td>Total:</td><td>pending confirmation</td></tr></table>`

	if result := parser.Parse(pnr.New(text)); result != nil {
		t.Errorf("expected nil without money amounts, got %#v", result)
	}
}

func TestParser_QuickCheck(t *testing.T) {
	parser := &Parser{}

	tests := []struct {
		text string
		want bool
	}{
		{"<td>Total: USD 100</td>", true},
		{"<td>TARIFA</td>", true},
		{"<td>flight details only</td>", false},
	}

	for _, tt := range tests {
		if got := parser.QuickCheck(tt.text); got != tt.want {
			t.Errorf("QuickCheck(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParser_ParseWithTrace(t *testing.T) {
	parser := &Parser{}

	text := `<table><tr><td>Total:</td><td>USD 600.00</td></tr></table>`
	trace := parser.ParseWithTrace(pnr.New(text))
	if !trace.Matched {
		t.Error("trace.Matched = false, want true")
	}
	if len(trace.Extractors) != 3 {
		t.Fatalf("expected 3 extractors, got %d", len(trace.Extractors))
	}
	for _, ext := range trace.Extractors {
		if ext.Name == "fare_total" {
			if !ext.Matched || ext.Value != "USD 600.00" {
				t.Errorf("fare_total = %v/%q, want matched USD 600.00", ext.Matched, ext.Value)
			}
		}
	}
}
