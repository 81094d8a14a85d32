// Package registry provides an extractor registry for dispatching PNR
// documents to appropriate parsers.
package registry

import (
	"sort"
	"sync"

	"pnr_parser/internal/pnr"
)

// Result is the common interface for all parse results.
type Result interface {
	Kind() string // e.g., "segments", "fare", "meta"
}

// Parser is implemented by each extractor.
type Parser interface {
	// Name returns the parser's unique identifier.
	Name() string

	// Formats returns which document formats this parser handles.
	// Empty slice means "all formats" (content-based parser like the
	// free-text metadata detectors).
	Formats() []pnr.Format

	// QuickCheck performs a fast string check before expensive regex.
	// Returns true if the document MIGHT be parseable (false = definitely skip).
	// This should use strings.Contains/HasPrefix, NOT regex.
	QuickCheck(text string) bool

	// Priority determines order when multiple parsers match the same format.
	// Lower number = checked first. Cheaper checks should have lower priority.
	Priority() int

	// Parse attempts to extract from the document, returns nil if not applicable.
	Parse(doc *pnr.Document) Result
}

// Registry holds all registered parsers organised for efficient dispatch.
type Registry struct {
	mu sync.RWMutex

	// byFormat maps formats to parser slices, sorted by Priority (ascending)
	byFormat map[pnr.Format][]Parser

	// global holds parsers that check all documents (content-based)
	global []Parser

	// sorted tracks whether parsers have been sorted
	sorted bool
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		byFormat: make(map[pnr.Format][]Parser),
	}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a parser to the default registry.
// Called during init() in each parser package.
func Register(p Parser) {
	defaultRegistry.Register(p)
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	formats := p.Formats()
	if len(formats) == 0 {
		// Content-based parser - checks all documents
		r.global = append(r.global, p)
	} else {
		for _, f := range formats {
			r.byFormat[f] = append(r.byFormat[f], p)
		}
	}
	r.sorted = false
}

// Sort sorts all parser slices by priority. Call before dispatching.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}

	for f := range r.byFormat {
		parsers := r.byFormat[f]
		sort.Slice(parsers, func(i, j int) bool {
			return parsers[i].Priority() < parsers[j].Priority()
		})
	}

	sort.Slice(r.global, func(i, j int) bool {
		return r.global[i].Priority() < r.global[j].Priority()
	})

	r.sorted = true
}

// Dispatch routes a document to appropriate parsers and returns all results.
// Multiple parsers can match the same document (e.g., segments + fare + meta).
// Note: Sort() should be called before Dispatch() for optimal performance.
// If Sort() has not been called, parsers will be in registration order.
func (r *Registry) Dispatch(doc *pnr.Document) []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []Result

	// 1. Try format-specific parsers first (most efficient path)
	if parsers, ok := r.byFormat[doc.Format]; ok {
		for _, p := range parsers {
			// Quick check before expensive parse
			if !p.QuickCheck(doc.Text) {
				continue
			}
			if result := p.Parse(doc); result != nil {
				results = append(results, result)
			}
		}
	}

	// 2. Try global (content-based) parsers
	for _, p := range r.global {
		if !p.QuickCheck(doc.Text) {
			continue
		}
		if result := p.Parse(doc); result != nil {
			results = append(results, result)
		}
	}

	return results
}

// DispatchFirst returns only the first successful parse result.
// Useful when you only need one result per document.
func (r *Registry) DispatchFirst(doc *pnr.Document) Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Try format-specific parsers
	if parsers, ok := r.byFormat[doc.Format]; ok {
		for _, p := range parsers {
			if !p.QuickCheck(doc.Text) {
				continue
			}
			if result := p.Parse(doc); result != nil {
				return result
			}
		}
	}

	// Try global parsers
	for _, p := range r.global {
		if !p.QuickCheck(doc.Text) {
			continue
		}
		if result := p.Parse(doc); result != nil {
			return result
		}
	}

	return nil
}

// RegisteredFormats returns all formats that have parsers registered.
func (r *Registry) RegisteredFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)
	return formats
}

// ParserCount returns the total number of unique registered parsers.
// Parsers registered for multiple formats are only counted once.
func (r *Registry) ParserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Use a map to deduplicate parsers (some may be registered for multiple formats).
	seen := make(map[string]bool)

	for _, p := range r.global {
		seen[p.Name()] = true
	}
	for _, parsers := range r.byFormat {
		for _, p := range parsers {
			seen[p.Name()] = true
		}
	}

	return len(seen)
}

// AllParsers returns all registered parsers (global and format-specific).
// This is useful for debugging and listing available parsers.
func (r *Registry) AllParsers() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Use a map to deduplicate parsers (some may be registered for multiple formats).
	seen := make(map[string]bool)
	var result []Parser

	// Add global parsers.
	for _, p := range r.global {
		if !seen[p.Name()] {
			seen[p.Name()] = true
			result = append(result, p)
		}
	}

	// Add format-specific parsers.
	for _, parsers := range r.byFormat {
		for _, p := range parsers {
			if !seen[p.Name()] {
				seen[p.Name()] = true
				result = append(result, p)
			}
		}
	}

	return result
}
