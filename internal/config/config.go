// Package config loads catalog settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDBDriver     = "CATALOG_DB_DRIVER"
	EnvDBDSN        = "CATALOG_DB_DSN"
	EnvRefreshDelay = "CATALOG_REFRESH_DELAY"
	EnvRefreshCron  = "CATALOG_REFRESH_CRON"
	EnvLogLevel     = "CATALOG_LOG_LEVEL"
	EnvLogFormat    = "CATALOG_LOG_FORMAT"
	EnvPageSize     = "CATALOG_PAGE_SIZE"
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// DetailedTracing wraps every statement in a span.
	DetailedTracing bool `yaml:"detailed_tracing"`
}

type RefreshConfig struct {
	Delay time.Duration `yaml:"delay"`
	// Cron enables periodic full refreshes, e.g. "@every 10m".
	Cron string `yaml:"cron"`
}

type ListingConfig struct {
	PageSize int `yaml:"page_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

// Config is the complete catalog configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Refresh       RefreshConfig       `yaml:"refresh"`
	Listing       ListingConfig       `yaml:"listing"`
	Log           LogConfig           `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns the built-in configuration: an in-process SQLite database,
// a one second refresh delay and pages of 20 products.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
		Refresh: RefreshConfig{Delay: time.Second},
		Listing: ListingConfig{PageSize: 20},
		Log:     LogConfig{Level: "info", Format: "text"},
		Observability: ObservabilityConfig{
			ServiceName: "catalog",
		},
	}
}

// Load reads filename over the defaults, applies environment overrides
// and validates the result. An empty filename skips the file.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := cfg.decode(file); err != nil {
			return nil, fmt.Errorf("config: %s: %w", filename, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	getEnv := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return defaultValue
	}

	c.Database.Driver = getEnv(EnvDBDriver, c.Database.Driver)
	c.Database.DSN = getEnv(EnvDBDSN, c.Database.DSN)
	c.Refresh.Cron = getEnv(EnvRefreshCron, c.Refresh.Cron)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.Log.Format = getEnv(EnvLogFormat, c.Log.Format)

	if raw := getEnv(EnvRefreshDelay, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRefreshDelay, err)
		}
		c.Refresh.Delay = d
	}
	if raw := getEnv(EnvPageSize, ""); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPageSize, err)
		}
		c.Listing.PageSize = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("config: database dsn is required for %s", c.Database.Driver)
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("config: listing page size must be positive, got %d", c.Listing.PageSize)
	}
	if c.Refresh.Delay < 0 {
		return fmt.Errorf("config: refresh delay must not be negative, got %s", c.Refresh.Delay)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", level)
	}
	return l, nil
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
