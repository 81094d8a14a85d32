// Package pnr models a reservation record input and its format
// classification.
package pnr

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pnr_parser/internal/textutil"
)

// Format identifies which of the two supported input shapes a document uses.
type Format string

const (
	// FormatMarkup is the AIR/AÉREO table layout.
	FormatMarkup Format = "markup"
	// FormatRaw is terminal-style fixed-token line output.
	FormatRaw Format = "raw"
)

// DetectFormat classifies input as markup when it begins with '<' (after
// leading whitespace) or contains a case-insensitive "<html" token; anything
// else is treated as raw terminal text.
func DetectFormat(text string) Format {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "<") || strings.Contains(strings.ToLower(t), "<html") {
		return FormatMarkup
	}
	return FormatRaw
}

// Document is one PNR input prepared for extraction. Markup inputs are
// parsed once so every parser walks the same tree.
type Document struct {
	Format Format
	Text   string

	root *goquery.Document // nil for raw inputs or when markup fails to parse
}

// New classifies text and, for markup, parses it. A markup document whose
// parse fails still dispatches; its parsers just find no rows.
func New(text string) *Document {
	doc := &Document{Format: DetectFormat(text), Text: text}
	if doc.Format == FormatMarkup {
		if root, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			doc.root = root
		}
	}
	return doc
}

// Root returns the parsed markup tree, nil for raw documents.
func (d *Document) Root() *goquery.Document {
	return d.root
}

// Flat returns the document's flattened visible text, used by the free-text
// metadata detectors.
func (d *Document) Flat() string {
	if d.root != nil {
		return textutil.Clean(d.root.Text())
	}
	return textutil.Clean(d.Text)
}

// Lines returns the cleaned, non-empty lines of the document, the unit the
// raw-path extractor works on.
func (d *Document) Lines() []string {
	var lines []string
	for _, ln := range strings.Split(d.Text, "\n") {
		if c := textutil.Clean(ln); c != "" {
			lines = append(lines, c)
		}
	}
	return lines
}
