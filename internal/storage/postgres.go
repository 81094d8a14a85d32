package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB wraps a PostgreSQL connection pool for the shared
// conversion archive.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool using a postgres:// DSN.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		id            BIGSERIAL PRIMARY KEY,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		format        TEXT NOT NULL,
		passengers    INTEGER NOT NULL DEFAULT 0,
		bags          TEXT NOT NULL DEFAULT '',
		currency      TEXT NOT NULL DEFAULT '',
		total         DOUBLE PRECISION NOT NULL DEFAULT 0,
		segment_count INTEGER NOT NULL DEFAULT 0,
		input_text    TEXT NOT NULL,
		result        JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at);
	CREATE INDEX IF NOT EXISTS idx_conversions_format ON conversions(format);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Insert stores a conversion and returns its assigned ID. A zero
// CreatedAt is replaced by the current time.
func (d *PostgresDB) Insert(ctx context.Context, c Conversion) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO conversions (created_at, format, passengers, bags, currency, total, segment_count, input_text, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, c.CreatedAt, c.Format, c.Passengers, c.Bags, c.Currency, c.Total, c.SegmentCount, c.InputText, c.ResultJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert conversion: %w", err)
	}
	return id, nil
}

// GetByID retrieves a single conversion. Returns (nil, nil) when the
// ID is not in the archive.
func (d *PostgresDB) GetByID(ctx context.Context, id int64) (*Conversion, error) {
	var c Conversion
	err := d.pool.QueryRow(ctx, `
		SELECT id, created_at, format, passengers, bags, currency, total, segment_count, input_text, result::text
		FROM conversions WHERE id = $1
	`, id).Scan(&c.ID, &c.CreatedAt, &c.Format, &c.Passengers, &c.Bags, &c.Currency, &c.Total, &c.SegmentCount, &c.InputText, &c.ResultJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &c, nil
}

// Recent returns the most recently stored conversions, newest first.
func (d *PostgresDB) Recent(ctx context.Context, limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, format, passengers, bags, currency, total, segment_count, input_text, result::text
		FROM conversions ORDER BY id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		err := rows.Scan(&c.ID, &c.CreatedAt, &c.Format, &c.Passengers, &c.Bags, &c.Currency, &c.Total, &c.SegmentCount, &c.InputText, &c.ResultJSON)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return out, nil
}

// CountByFormat returns conversion counts grouped by input format.
func (d *PostgresDB) CountByFormat(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)

	rows, err := d.pool.Query(ctx, "SELECT format, COUNT(*) FROM conversions GROUP BY format")
	if err != nil {
		return nil, fmt.Errorf("count by format: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var format string
		var count int64
		if err := rows.Scan(&format, &count); err != nil {
			return nil, fmt.Errorf("scan format count: %w", err)
		}
		counts[format] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate format counts: %w", err)
	}
	return counts, nil
}
