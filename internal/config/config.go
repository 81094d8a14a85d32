// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	HTTPAddr string
	APIKeys  []string

	// Storage
	SQLitePath  string
	PostgresDSN string

	// ClickHouse archive
	CHHost     string
	CHPort     int
	CHDatabase string
	CHUser     string
	CHPassword string

	// NATS feed
	NATSURL           string
	NATSSubject       string
	NATSResultSubject string
	NATSQueue         string

	// Runtime
	LogLevel string
	Language string
}

// Load reads configuration from environment variables, loading a .env file
// first if one exists.
func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		SQLitePath:  getEnv("SQLITE_PATH", "pnr.db"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		CHHost:     getEnv("CLICKHOUSE_HOST", ""),
		CHPort:     getEnvAsInt("CLICKHOUSE_PORT", 9000),
		CHDatabase: getEnv("CLICKHOUSE_DB", "pnr"),
		CHUser:     getEnv("CLICKHOUSE_USER", "default"),
		CHPassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		NATSURL:           getEnv("NATS_URL", ""),
		NATSSubject:       getEnv("NATS_SUBJECT", "pnr.convert"),
		NATSResultSubject: getEnv("NATS_RESULT_SUBJECT", "pnr.result"),
		NATSQueue:         getEnv("NATS_QUEUE", "pnr-workers"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Language: getEnv("RENDER_LANGUAGE", "en"),
	}

	if keys := getEnv("API_KEYS", ""); keys != "" {
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.APIKeys = append(cfg.APIKeys, k)
			}
		}
	}

	return cfg
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
