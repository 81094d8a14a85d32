package raw

import (
	"testing"

	"pnr_parser/internal/pnr"
)

func TestParser_Parse(t *testing.T) {
	parser := &Parser{}

	text := `BOOKING REF: ABC123
1 AA 100 Y 05JAN 1 JFKLAX 1234 1430

2 IB6845 J 25DIC 7 MADEZE HK2 2355 0835
FARE USD 512.40`

	result := parser.Parse(pnr.New(text))
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	pr, ok := result.(*Result)
	if !ok {
		t.Fatalf("expected *Result, got %T", result)
	}
	if len(pr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(pr.Segments))
	}

	first := pr.Segments[0]
	if first.Idx != 1 {
		t.Errorf("Idx = %d, want 1", first.Idx)
	}
	if first.Airline != "AA" {
		t.Errorf("Airline = %q, want %q", first.Airline, "AA")
	}
	if first.FlightNumber != "AA100" {
		t.Errorf("FlightNumber = %q, want %q", first.FlightNumber, "AA100")
	}
	if first.Cabin != "Y" {
		t.Errorf("Cabin = %q, want %q", first.Cabin, "Y")
	}
	if first.From != "JFK" {
		t.Errorf("From = %q, want %q", first.From, "JFK")
	}
	if first.To != "LAX" {
		t.Errorf("To = %q, want %q", first.To, "LAX")
	}
	if first.DepText != "05 JAN 12:34" {
		t.Errorf("DepText = %q, want %q", first.DepText, "05 JAN 12:34")
	}
	if first.ArrText != "05 JAN 14:30" {
		t.Errorf("ArrText = %q, want %q", first.ArrText, "05 JAN 14:30")
	}

	second := pr.Segments[1]
	if second.Idx != 2 {
		t.Errorf("Idx = %d, want 2", second.Idx)
	}
	if second.FlightNumber != "IB6845" {
		t.Errorf("FlightNumber = %q, want %q", second.FlightNumber, "IB6845")
	}
	if second.From != "MAD" || second.To != "EZE" {
		t.Errorf("route = %q-%q, want MAD-EZE", second.From, second.To)
	}
	if second.DepText != "25 DIC 23:55" {
		t.Errorf("DepText = %q, want %q", second.DepText, "25 DIC 23:55")
	}
	if second.ArrText != "25 DIC 08:35" {
		t.Errorf("ArrText = %q, want %q", second.ArrText, "25 DIC 08:35")
	}
}

func TestParser_ParseVariants(t *testing.T) {
	parser := &Parser{}

	tests := []struct {
		name    string
		line    string
		airline string
		flight  string
		cabin   string
		from    string
		to      string
		dep     string
		arr     string
	}{
		{
			name:    "no day-of-week, no status, 3-digit time",
			line:    "UX 92 W 10JUL MADJFK 950 1355",
			airline: "UX", flight: "UX92", cabin: "W",
			from: "MAD", to: "JFK",
			dep: "10 JUL 9:50", arr: "10 JUL 13:55",
		},
		{
			name:    "fused designator with status code",
			line:    "2 IB6845 J 25DIC 7 MADEZE HK2 2355 0835",
			airline: "IB", flight: "IB6845", cabin: "J",
			from: "MAD", to: "EZE",
			dep: "25 DIC 23:55", arr: "25 DIC 08:35",
		},
		{
			name:    "lowercase input is uppercased",
			line:    "1 aa 100 y 05jan 1 jfklax 1234 1430",
			airline: "AA", flight: "AA100", cabin: "Y",
			from: "JFK", to: "LAX",
			dep: "05 JAN 12:34", arr: "05 JAN 14:30",
		},
		{
			name:    "alphanumeric carrier code",
			line:    "3 U2 4501 Y 02FEB LGWAMS 0710 0935",
			airline: "U2", flight: "U24501", cabin: "Y",
			from: "LGW", to: "AMS",
			dep: "02 FEB 07:10", arr: "02 FEB 09:35",
		},
	}

	for _, tt := range tests {
		result := parser.Parse(pnr.New(tt.line))
		if result == nil {
			t.Errorf("%s: expected result, got nil", tt.name)
			continue
		}
		pr := result.(*Result)
		if len(pr.Segments) != 1 {
			t.Errorf("%s: expected 1 segment, got %d", tt.name, len(pr.Segments))
			continue
		}
		seg := pr.Segments[0]
		if seg.Airline != tt.airline {
			t.Errorf("%s: Airline = %q, want %q", tt.name, seg.Airline, tt.airline)
		}
		if seg.FlightNumber != tt.flight {
			t.Errorf("%s: FlightNumber = %q, want %q", tt.name, seg.FlightNumber, tt.flight)
		}
		if seg.Cabin != tt.cabin {
			t.Errorf("%s: Cabin = %q, want %q", tt.name, seg.Cabin, tt.cabin)
		}
		if seg.From != tt.from || seg.To != tt.to {
			t.Errorf("%s: route = %q-%q, want %q-%q", tt.name, seg.From, seg.To, tt.from, tt.to)
		}
		if seg.DepText != tt.dep {
			t.Errorf("%s: DepText = %q, want %q", tt.name, seg.DepText, tt.dep)
		}
		if seg.ArrText != tt.arr {
			t.Errorf("%s: ArrText = %q, want %q", tt.name, seg.ArrText, tt.arr)
		}
	}
}

func TestParser_ParseNoSegments(t *testing.T) {
	parser := &Parser{}

	text := `TOTAL USD 100.00
PASSENGERS: 2`

	if result := parser.Parse(pnr.New(text)); result != nil {
		t.Errorf("expected nil for text without segment lines, got %#v", result)
	}
}

func TestParser_QuickCheck(t *testing.T) {
	parser := &Parser{}

	tests := []struct {
		text string
		want bool
	}{
		{"1 AA 100 Y 05JAN 1 JFKLAX 1234 1430", true},
		{"no flights here", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := parser.QuickCheck(tt.text); got != tt.want {
			t.Errorf("QuickCheck(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParser_ParseWithTrace(t *testing.T) {
	parser := &Parser{}

	trace := parser.ParseWithTrace(pnr.New("1 AA 100 Y 05JAN 1 JFKLAX 1234 1430"))
	if trace.QuickCheck == nil || !trace.QuickCheck.Passed {
		t.Fatal("QuickCheck should pass")
	}
	if !trace.Matched {
		t.Error("trace.Matched = false, want true")
	}
	if len(trace.Formats) == 0 {
		t.Fatal("expected format traces")
	}
	if trace.Formats[0].Name != "segment_line" {
		t.Errorf("Formats[0].Name = %q, want %q", trace.Formats[0].Name, "segment_line")
	}
	if got := trace.Formats[0].Captures["from"]; got != "JFK" {
		t.Errorf("captured from = %q, want %q", got, "JFK")
	}

	miss := parser.ParseWithTrace(pnr.New("no digits at all"))
	if miss.QuickCheck.Passed {
		t.Error("QuickCheck should fail without digits")
	}
	if miss.Matched {
		t.Error("trace.Matched = true, want false")
	}
}
