// Package storage persists finished conversions: SQLite for the local
// archive, PostgreSQL for shared deployments, ClickHouse for analytics.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pnr_parser/internal/itinerary"
)

// Conversion is one archived conversion: the input document plus the
// structured itinerary it produced. Denormalized columns (passengers,
// currency, segment count) exist so the archive can be filtered without
// unpacking result_json.
type Conversion struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Format       string    `json:"format"`
	Passengers   int       `json:"passengers"`
	Bags         string    `json:"bags,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Total        float64   `json:"total,omitempty"`
	SegmentCount int       `json:"segment_count"`
	InputText    string    `json:"input_text"`
	ResultJSON   string    `json:"result_json"`
}

// NewConversion flattens a parse result into the archive record shape.
func NewConversion(format, input string, result *itinerary.ParseResult) (Conversion, error) {
	if result == nil {
		result = &itinerary.ParseResult{}
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return Conversion{}, fmt.Errorf("marshal result: %w", err)
	}

	c := Conversion{
		Format:       format,
		Passengers:   result.Meta.Passengers,
		Bags:         result.Meta.Bags,
		SegmentCount: len(result.Segments),
		InputText:    input,
		ResultJSON:   string(resultJSON),
	}
	if result.Meta.Fare != nil {
		c.Currency = result.Meta.Fare.Currency
		c.Total = result.Meta.Fare.TotalAmount
	}
	return c, nil
}

// Config selects which storage backends to open. Empty entries are
// skipped: SQLitePath "" means no local archive, PostgresDSN "" means
// no shared archive, and a ClickHouse config without a host means no
// analytics sink.
type Config struct {
	SQLitePath  string
	PostgresDSN string
	ClickHouse  ClickHouseConfig
}

// DefaultConfig returns a local-only configuration.
func DefaultConfig() Config {
	return Config{
		SQLitePath: "pnr.db",
	}
}

// Stores bundles the opened storage backends. Any field may be nil
// when the corresponding backend was not configured.
type Stores struct {
	SQLite     *DB
	Postgres   *PostgresDB
	ClickHouse *ClickHouseDB
}

// OpenStores opens every backend named in cfg. On partial failure the
// already-opened backends are closed before the error is returned.
func OpenStores(ctx context.Context, cfg Config) (*Stores, error) {
	s := &Stores{}

	if cfg.SQLitePath != "" {
		db, err := Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s.SQLite = db
	}

	if cfg.PostgresDSN != "" {
		pg, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.Postgres = pg
	}

	if cfg.ClickHouse.Host != "" {
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.ClickHouse = ch
	}

	return s, nil
}

// Close closes all opened backends.
func (s *Stores) Close() {
	if s.SQLite != nil {
		_ = s.SQLite.Close()
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.ClickHouse != nil {
		_ = s.ClickHouse.Close()
	}
}

// CreateSchemas creates tables on the backends that need explicit
// schema setup. The SQLite archive creates its schema at open time.
func (s *Stores) CreateSchemas(ctx context.Context) error {
	if s.Postgres != nil {
		if err := s.Postgres.CreateSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	if s.ClickHouse != nil {
		if err := s.ClickHouse.CreateSchema(ctx); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}
