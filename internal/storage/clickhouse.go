package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"pnr_parser/internal/itinerary"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for conversion analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS conversion_events (
		id            UInt64,
		created_at    DateTime64(3),
		format        LowCardinality(String),
		passengers    UInt8,
		bags          String,
		currency      LowCardinality(String),
		total         Float64,
		segment_count UInt8,
		airlines      Array(LowCardinality(String)),
		routes        Array(String),
		input_length  UInt32
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(created_at)
	ORDER BY (format, created_at, id)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ConversionEvent is one analytics row describing a finished
// conversion. It carries no document text beyond its length.
type ConversionEvent struct {
	ID           uint64
	CreatedAt    time.Time
	Format       string
	Passengers   uint8
	Bags         string
	Currency     string
	Total        float64
	SegmentCount uint8
	Airlines     []string
	Routes       []string
	InputLength  uint32
}

// NewConversionEvent derives an analytics event from an archived
// conversion and the segments it produced.
func NewConversionEvent(id uint64, c Conversion, segments []itinerary.Segment) ConversionEvent {
	ev := ConversionEvent{
		ID:           id,
		CreatedAt:    c.CreatedAt,
		Format:       c.Format,
		Passengers:   clampUint8(c.Passengers),
		Bags:         c.Bags,
		Currency:     c.Currency,
		Total:        c.Total,
		SegmentCount: clampUint8(c.SegmentCount),
		InputLength:  uint32(len(c.InputText)),
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	seen := make(map[string]bool)
	for _, seg := range segments {
		if seg.Airline != "" && !seen[seg.Airline] {
			seen[seg.Airline] = true
			ev.Airlines = append(ev.Airlines, seg.Airline)
		}
		if seg.From != "" && seg.To != "" {
			ev.Routes = append(ev.Routes, seg.From+"-"+seg.To)
		}
	}
	return ev
}

func clampUint8(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// Insert stores a single conversion event.
func (d *ClickHouseDB) Insert(ctx context.Context, ev ConversionEvent) error {
	err := d.conn.Exec(ctx, `
		INSERT INTO conversion_events (id, created_at, format, passengers, bags, currency, total, segment_count, airlines, routes, input_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.CreatedAt, ev.Format, ev.Passengers, ev.Bags, ev.Currency, ev.Total, ev.SegmentCount, ev.Airlines, ev.Routes, ev.InputLength)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// InsertBatch stores multiple conversion events efficiently.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, events []ConversionEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO conversion_events (id, created_at, format, passengers, bags, currency, total, segment_count, airlines, routes, input_length)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ev := range events {
		err := batch.Append(ev.ID, ev.CreatedAt, ev.Format, ev.Passengers, ev.Bags, ev.Currency, ev.Total, ev.SegmentCount, ev.Airlines, ev.Routes, ev.InputLength)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CHStats contains aggregate statistics about conversion events.
type CHStats struct {
	TotalEvents uint64
	ByFormat    map[string]uint64
	ByAirline   map[string]uint64
	AvgSegments float64
}

// GetStats returns statistics about stored conversion events.
func (d *ClickHouseDB) GetStats(ctx context.Context) (*CHStats, error) {
	stats := &CHStats{
		ByFormat:  make(map[string]uint64),
		ByAirline: make(map[string]uint64),
	}

	row := d.conn.QueryRow(ctx, "SELECT count(), avg(segment_count) FROM conversion_events")
	if err := row.Scan(&stats.TotalEvents, &stats.AvgSegments); err != nil {
		return nil, err
	}

	rows, err := d.conn.Query(ctx, "SELECT format, count() FROM conversion_events GROUP BY format ORDER BY count() DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var format string
		var count uint64
		if err := rows.Scan(&format, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan format stats: %w", err)
		}
		stats.ByFormat[format] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate format stats: %w", err)
	}
	rows.Close()

	rows, err = d.conn.Query(ctx, "SELECT airline, count() FROM conversion_events ARRAY JOIN airlines AS airline GROUP BY airline ORDER BY count() DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var airline string
		var count uint64
		if err := rows.Scan(&airline, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan airline stats: %w", err)
		}
		stats.ByAirline[airline] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate airline stats: %w", err)
	}
	rows.Close()

	return stats, nil
}

// Count returns the total number of events, optionally filtered by
// input format.
func (d *ClickHouseDB) Count(ctx context.Context, format string) (uint64, error) {
	var count uint64
	var err error
	if format != "" {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM conversion_events WHERE format = ?", format)
		err = row.Scan(&count)
	} else {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM conversion_events")
		err = row.Scan(&count)
	}
	return count, err
}
