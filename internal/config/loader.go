package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from the given .env files into the
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
// Unset variables take the default from the field's tag. Every malformed
// value is reported, then the result is validated.
func Load() (*Config, error) {
	cfg := &Config{}

	var bad []string
	decodeEnv(reflect.ValueOf(cfg).Elem(), os.LookupEnv, &bad)
	if len(bad) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(bad, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

var durationType = reflect.TypeOf(time.Duration(0))

// decodeEnv fills the tagged fields of a config struct, descending into
// section structs. Fields use:
//
//	env:"NAME"       variable to read
//	envAlt:"NAME"    fallback variable
//	default:"value"  used when neither is set or both are empty
func decodeEnv(v reflect.Value, lookup func(string) (string, bool), bad *[]string) {
	t := v.Type()
	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			decodeEnv(fv, lookup, bad)
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := firstSet(lookup, name, field.Tag.Get("envAlt"))
		if raw == "" {
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := parseValue(fv, raw); err != nil {
			*bad = append(*bad, fmt.Sprintf("%s=%q: %v", name, raw, err))
		}
	}
}

func firstSet(lookup func(string) (string, bool), names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if val, ok := lookup(n); ok && val != "" {
			return val
		}
	}
	return ""
}

// parseValue converts raw into fv's type. Slices are comma-separated with
// blanks dropped.
func parseValue(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.New("not a duration")
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return errors.New("not an integer")
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("not a boolean")
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem())
		}
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported type %s", fv.Type())
	}
	return nil
}

// problems collects validation failures.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate checks that the configuration is usable and reports every
// failure at once.
func (c *Config) Validate() error {
	var p problems

	u, err := url.Parse(c.Sheets.BaseURL)
	p.check(err == nil && u.Scheme != "" && u.Host != "", "SHEETS_BASE_URL (%q) must be an absolute URL", c.Sheets.BaseURL)
	p.check(c.Sheets.HTTPTimeout > 0, "SHEETS_HTTP_TIMEOUT must be positive")
	p.check(c.Sheets.MaxResponseBytes > 0, "SHEETS_MAX_RESPONSE_BYTES must be positive")

	if c.Database.Enabled() {
		p.check(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.check(c.Database.MaxConns >= c.Database.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}

	p.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(c.Server.RequestTimeout > 0, "SERVER_REQUEST_TIMEOUT must be positive")
	p.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	p.check(c.Scan.MaxConcurrent > 0, "SCAN_MAX_CONCURRENT must be positive")
	p.check(c.Scan.MaxWaitTime > 0, "SCAN_MAX_WAIT_TIME must be positive")
	p.check(c.Scan.SessionIdleTimeout > 0, "SCAN_SESSION_IDLE_TIMEOUT must be positive")
	p.check(c.Scan.DefaultLimit > 0, "SCAN_DEFAULT_LIMIT must be positive")
	p.check(!c.Scan.RefreshEnabled || c.Catalog.File != "", "SCAN_REFRESH_ENABLED requires TABLES_FILE")

	if c.Rate.Enabled {
		p.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.check(c.Rate.ScanLimit > 0, "RATE_LIMIT_SCAN must be positive when rate limiting is enabled")
	}

	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Sheets: {BaseURL: %q, HTTPTimeout: %s, MaxResponseBytes: %d}, ",
		c.Sheets.BaseURL, c.Sheets.HTTPTimeout, c.Sheets.MaxResponseBytes))
	if c.Database.Enabled() {
		b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
			c.Database.MaxConns, c.Database.MinConns))
	} else {
		b.WriteString("Database: {disabled}, ")
	}
	b.WriteString(fmt.Sprintf("Scan: {MaxConcurrent: %d, SessionIdleTimeout: %s, DefaultLimit: %d, RefreshEnabled: %v}, ",
		c.Scan.MaxConcurrent, c.Scan.SessionIdleTimeout, c.Scan.DefaultLimit, c.Scan.RefreshEnabled))
	b.WriteString(fmt.Sprintf("Catalog: {File: %q}, ", c.Catalog.File))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
