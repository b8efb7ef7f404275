// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Database DatabaseConfig
	Scan     ScanConfig
	Catalog  CatalogConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig holds settings for the spreadsheet export endpoint.
type SheetsConfig struct {
	// BaseURL is prepended to the spreadsheet id when building export URLs.
	BaseURL string `env:"SHEETS_BASE_URL" default:"https://docs.google.com/spreadsheets/d"`

	// HTTPTimeout bounds one export request (default: 30s)
	HTTPTimeout time.Duration `env:"SHEETS_HTTP_TIMEOUT" default:"30s"`

	// MaxResponseBytes caps the response body size (default: 50MB)
	MaxResponseBytes int64 `env:"SHEETS_MAX_RESPONSE_BYTES" default:"52428800"`

	// UserAgent is sent with every export request.
	UserAgent string `env:"SHEETS_USER_AGENT" default:"Sheets FDW"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without it table loads are disabled.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ScanConfig holds scan session settings.
type ScanConfig struct {
	// MaxConcurrent is the maximum number of export fetches in flight (default: 4)
	MaxConcurrent int `env:"SCAN_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a fetch slot (default: 30s)
	MaxWaitTime time.Duration `env:"SCAN_MAX_WAIT_TIME" default:"30s"`

	// SessionIdleTimeout ends scan sessions nobody has touched (default: 5m)
	SessionIdleTimeout time.Duration `env:"SCAN_SESSION_IDLE_TIMEOUT" default:"5m"`

	// DefaultLimit is the row limit for previews without ?limit (default: 1000)
	DefaultLimit int `env:"SCAN_DEFAULT_LIMIT" default:"1000"`

	// RefreshEnabled starts the catalog refresh scheduler (default: false)
	RefreshEnabled bool `env:"SCAN_REFRESH_ENABLED" default:"false"`
}

// CatalogConfig points at the table catalog.
type CatalogConfig struct {
	// File is a YAML table catalog. Empty means no catalog tables.
	File string `env:"TABLES_FILE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ScanLimit is requests per minute for endpoints that fetch a spreadsheet (default: 20)
	ScanLimit int `env:"RATE_LIMIT_SCAN" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects /api routes with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
