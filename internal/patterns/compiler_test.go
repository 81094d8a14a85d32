package patterns

import "testing"

func testFormats() []Format {
	return []Format{
		{
			Name:    "route_pair",
			Pattern: `(?P<from>{IATA})\s?(?P<to>{IATA})\s+(?P<dep>{HHMM})`,
			Fields:  []string{"from", "to", "dep"},
		},
		{
			Name:    "ccy_amount",
			Pattern: `(?P<ccy>{CCY})\s?(?P<amount>{AMOUNT})`,
			Fields:  []string{"ccy", "amount"},
		},
	}
}

func TestCompilerExpandAndParse(t *testing.T) {
	c := NewCompiler(testFormats(), nil)
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	m := c.Parse("JFKLAX 1234")
	if m == nil {
		t.Fatal("Parse returned nil for a matching line")
	}
	if m.FormatName != "route_pair" {
		t.Errorf("FormatName = %q, want %q", m.FormatName, "route_pair")
	}
	if m.Captures["from"] != "JFK" {
		t.Errorf("from = %q, want %q", m.Captures["from"], "JFK")
	}
	if m.Captures["to"] != "LAX" {
		t.Errorf("to = %q, want %q", m.Captures["to"], "LAX")
	}
	if m.Captures["dep"] != "1234" {
		t.Errorf("dep = %q, want %q", m.Captures["dep"], "1234")
	}
}

func TestCompilerFallsThroughRules(t *testing.T) {
	c := NewCompiler(testFormats(), nil)
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// "USD 100" only satisfies the second rule.
	m := c.Parse("USD 100")
	if m == nil {
		t.Fatal("Parse returned nil")
	}
	if m.FormatName != "ccy_amount" {
		t.Errorf("FormatName = %q, want %q", m.FormatName, "ccy_amount")
	}
	if m.Captures["ccy"] != "USD" || m.Captures["amount"] != "100" {
		t.Errorf("captures = %v", m.Captures)
	}
}

func TestCompilerLocalOverride(t *testing.T) {
	formats := []Format{{
		Name:    "day_month",
		Pattern: `(?P<day>{DAY})(?P<month>{MONTH3})`,
		Fields:  []string{"day", "month"},
	}}
	// Narrow DAY to exactly two digits for this rule set.
	c := NewCompiler(formats, map[string]string{"DAY": `\d{2}`})
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if m := c.Parse("05JAN"); m == nil {
		t.Error("expected 05JAN to match with two-digit day")
	} else if m.Captures["month"] != "JAN" {
		t.Errorf("month = %q, want JAN", m.Captures["month"])
	}
}

func TestCompilerLowercaseInput(t *testing.T) {
	c := NewCompiler(testFormats(), nil)
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	// Input is uppercased before matching.
	if m := c.Parse("jfklax 1234"); m == nil {
		t.Error("expected lowercase input to match after uppercasing")
	}
}

func TestGetCapture(t *testing.T) {
	var nilMatch *Match
	if got := nilMatch.GetCapture("x", "fallback"); got != "fallback" {
		t.Errorf("GetCapture on nil = %q, want fallback", got)
	}

	m := &Match{Captures: map[string]string{"ccy": "EUR", "empty": ""}}
	if got := m.GetCapture("ccy", "?"); got != "EUR" {
		t.Errorf("GetCapture(ccy) = %q, want EUR", got)
	}
	if got := m.GetCapture("empty", "?"); got != "?" {
		t.Errorf("GetCapture(empty) = %q, want ?", got)
	}
	if got := m.GetCapture("missing", "?"); got != "?" {
		t.Errorf("GetCapture(missing) = %q, want ?", got)
	}
}

func TestParseWithTrace(t *testing.T) {
	c := NewCompiler(testFormats(), nil)
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// Both rules happen to match this line; the trace records each attempt
	// and Match carries the first.
	trace := c.ParseWithTrace("MADEZE 2355")
	if len(trace.Formats) != 2 {
		t.Fatalf("trace has %d formats, want 2", len(trace.Formats))
	}
	if !trace.Formats[0].Matched {
		t.Error("route_pair should have matched")
	}
	if trace.Match == nil || trace.Match.FormatName != "route_pair" {
		t.Errorf("trace.Match = %+v, want route_pair", trace.Match)
	}
	if trace.Formats[0].Captures["from"] != "MAD" || trace.Formats[0].Captures["to"] != "EZE" {
		t.Errorf("route_pair captures = %v", trace.Formats[0].Captures)
	}

	miss := c.ParseWithTrace("NO DIGITS HERE")
	if miss.Match != nil {
		t.Errorf("expected no match, got %+v", miss.Match)
	}
	for _, ft := range miss.Formats {
		if ft.Matched {
			t.Errorf("rule %s should not have matched", ft.Name)
		}
	}
}

func TestFormatHHMM(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"805", "8:05"},
		{"0805", "08:05"},
		{"1234", "12:34"},
		{"1430", "14:30"},
		{"12", ""},
		{"12345", ""},
		{"12a4", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatHHMM(tt.in); got != tt.want {
			t.Errorf("FormatHHMM(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
