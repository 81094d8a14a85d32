package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenStoresSQLiteOnly(t *testing.T) {
	cfg := Config{SQLitePath: filepath.Join(t.TempDir(), "archive.db")}

	stores, err := OpenStores(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenStores returned error: %v", err)
	}
	defer stores.Close()

	if stores.SQLite == nil {
		t.Error("expected sqlite store to be opened")
	}
	if stores.Postgres != nil {
		t.Error("expected no postgres store")
	}
	if stores.ClickHouse != nil {
		t.Error("expected no clickhouse store")
	}

	if err := stores.CreateSchemas(context.Background()); err != nil {
		t.Errorf("CreateSchemas returned error: %v", err)
	}
}

func TestOpenStoresNothingConfigured(t *testing.T) {
	stores, err := OpenStores(context.Background(), Config{})
	if err != nil {
		t.Fatalf("OpenStores returned error: %v", err)
	}
	defer stores.Close()

	if stores.SQLite != nil || stores.Postgres != nil || stores.ClickHouse != nil {
		t.Error("expected no backends to be opened")
	}
}

func TestOpenStoresClosesOnPartialFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	cfg := Config{
		SQLitePath:  path,
		PostgresDSN: "not-a-dsn",
	}

	stores, err := OpenStores(context.Background(), cfg)
	if err == nil {
		stores.Close()
		t.Fatal("expected error from bad postgres dsn")
	}
	if stores != nil {
		t.Errorf("expected nil stores on failure, got %+v", stores)
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("expected error to name the failed backend, got %q", err)
	}

	// The sqlite handle opened before the failure must have been released:
	// reopening the same file should work.
	db, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after failed OpenStores: %v", err)
	}
	_ = db.Close()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SQLitePath != "pnr.db" {
		t.Errorf("expected default sqlite path 'pnr.db', got '%s'", cfg.SQLitePath)
	}
	if cfg.PostgresDSN != "" {
		t.Errorf("expected no default postgres dsn, got '%s'", cfg.PostgresDSN)
	}
	if cfg.ClickHouse.Host != "" {
		t.Errorf("expected no default clickhouse host, got '%s'", cfg.ClickHouse.Host)
	}
}
