// Package parsers imports all parser packages to trigger their init() registration.
// Import this package for side effects only.
package parsers

import (
	// Import all parser packages to register them with the registry.
	_ "pnr_parser/internal/parsers/fare"
	_ "pnr_parser/internal/parsers/markup"
	_ "pnr_parser/internal/parsers/meta"
	_ "pnr_parser/internal/parsers/raw"
)
