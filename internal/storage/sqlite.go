package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding the local conversion archive.
type DB struct {
	db *sql.DB
}

// Open opens the archive at path, creating the schema if needed.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets archive readers run alongside the single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	d := &DB{db: db}
	if err := d.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return d, nil
}

func (d *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at    INTEGER NOT NULL,
		format        TEXT NOT NULL,
		passengers    INTEGER NOT NULL DEFAULT 0,
		bags          TEXT NOT NULL DEFAULT '',
		currency      TEXT NOT NULL DEFAULT '',
		total         REAL NOT NULL DEFAULT 0,
		segment_count INTEGER NOT NULL DEFAULT 0,
		input_text    TEXT NOT NULL,
		result_json   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at);
	CREATE INDEX IF NOT EXISTS idx_conversions_format ON conversions(format);

	CREATE VIRTUAL TABLE IF NOT EXISTS conversions_fts USING fts5(
		input_text,
		content='conversions',
		content_rowid='id'
	);

	CREATE TRIGGER IF NOT EXISTS conversions_ai AFTER INSERT ON conversions BEGIN
		INSERT INTO conversions_fts(rowid, input_text) VALUES (new.id, new.input_text);
	END;

	CREATE TRIGGER IF NOT EXISTS conversions_ad AFTER DELETE ON conversions BEGIN
		INSERT INTO conversions_fts(conversions_fts, rowid, input_text) VALUES ('delete', old.id, old.input_text);
	END;
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the archive.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert stores a conversion and returns its assigned ID. A zero
// CreatedAt is replaced by the current time.
func (d *DB) Insert(ctx context.Context, c Conversion) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO conversions (created_at, format, passengers, bags, currency, total, segment_count, input_text, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.CreatedAt.Unix(), c.Format, c.Passengers, c.Bags, c.Currency, c.Total, c.SegmentCount, c.InputText, c.ResultJSON)
	if err != nil {
		return 0, fmt.Errorf("insert conversion: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get insert id: %w", err)
	}
	return id, nil
}

const conversionColumns = "id, created_at, format, passengers, bags, currency, total, segment_count, input_text, result_json"

// GetByID retrieves a single conversion. Returns (nil, nil) when the
// ID is not in the archive.
func (d *DB) GetByID(ctx context.Context, id int64) (*Conversion, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+conversionColumns+" FROM conversions WHERE id = ?", id)

	var c Conversion
	var createdAt int64
	err := row.Scan(&c.ID, &createdAt, &c.Format, &c.Passengers, &c.Bags, &c.Currency, &c.Total, &c.SegmentCount, &c.InputText, &c.ResultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion: %w", err)
	}

	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

// Recent returns the most recently stored conversions, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.QueryContext(ctx, "SELECT "+conversionColumns+" FROM conversions ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	return scanConversions(rows)
}

// Search runs an FTS5 full-text query against the stored input
// documents and returns matching conversions, newest first.
func (d *DB) Search(ctx context.Context, query string, limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT conversions.id, conversions.created_at, conversions.format, conversions.passengers, conversions.bags, conversions.currency, conversions.total, conversions.segment_count, conversions.input_text, conversions.result_json
		FROM conversions
		JOIN conversions_fts ON conversions.id = conversions_fts.rowid
		WHERE conversions_fts MATCH ?
		ORDER BY conversions.id DESC
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search conversions: %w", err)
	}
	defer rows.Close()

	return scanConversions(rows)
}

func scanConversions(rows *sql.Rows) ([]Conversion, error) {
	var out []Conversion
	for rows.Next() {
		var c Conversion
		var createdAt int64
		err := rows.Scan(&c.ID, &createdAt, &c.Format, &c.Passengers, &c.Bags, &c.Currency, &c.Total, &c.SegmentCount, &c.InputText, &c.ResultJSON)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return out, nil
}

// Stats contains aggregate statistics about the archive.
type Stats struct {
	TotalConversions int64
	ByFormat         map[string]int64
	EmptyConversions int64 // stored with zero segments
	AvgSegments      float64
}

// Stats returns archive-wide statistics.
func (d *DB) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByFormat: make(map[string]int64)}

	row := d.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(AVG(segment_count), 0) FROM conversions")
	if err := row.Scan(&stats.TotalConversions, &stats.AvgSegments); err != nil {
		return nil, fmt.Errorf("count conversions: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, "SELECT format, COUNT(*) FROM conversions GROUP BY format")
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
		stats.ByFormat[format] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate format counts: %w", err)
	}

	row = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversions WHERE segment_count = 0")
	if err := row.Scan(&stats.EmptyConversions); err != nil {
		return nil, fmt.Errorf("count empty conversions: %w", err)
	}

	return stats, nil
}
