package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Refresh.Delay)
	assert.Equal(t, 20, cfg.Listing.PageSize)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
database:
  driver: postgres
  dsn: host=localhost user=catalog dbname=catalog
  detailed_tracing: true
refresh:
  delay: 250ms
  cron: "@every 10m"
listing:
  page_size: 50
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.DetailedTracing)
	assert.Equal(t, 250*time.Millisecond, cfg.Refresh.Delay)
	assert.Equal(t, "@every 10m", cfg.Refresh.Cron)
	assert.Equal(t, 50, cfg.Listing.PageSize)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "catalog", cfg.Observability.ServiceName, "unset sections keep defaults")
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "database:\n  drvier: sqlite\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDBDriver, "memory")
	t.Setenv(EnvDBDSN, "")
	t.Setenv(EnvRefreshDelay, "5s")
	t.Setenv(EnvRefreshCron, "@hourly")
	t.Setenv(EnvPageSize, "12")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeFile(t, "database:\n  driver: postgres\n  dsn: x\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "x", cfg.Database.DSN, "empty variables do not override")
	assert.Equal(t, 5*time.Second, cfg.Refresh.Delay)
	assert.Equal(t, "@hourly", cfg.Refresh.Cron)
	assert.Equal(t, 12, cfg.Listing.PageSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvironmentOverrideErrors(t *testing.T) {
	t.Run("delay", func(t *testing.T) {
		t.Setenv(EnvRefreshDelay, "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, EnvRefreshDelay)
	})
	t.Run("page size", func(t *testing.T) {
		t.Setenv(EnvPageSize, "many")
		_, err := Load("")
		assert.ErrorContains(t, err, EnvPageSize)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database driver"},
		{"dsn", func(c *Config) { c.Database.DSN = "" }, "dsn is required"},
		{"page size", func(c *Config) { c.Listing.PageSize = 0 }, "page size"},
		{"delay", func(c *Config) { c.Refresh.Delay = -time.Second }, "refresh delay"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	memory := Default()
	memory.Database.Driver = "memory"
	memory.Database.DSN = ""
	assert.NoError(t, memory.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json output expected, got %q", out)
	assert.Contains(t, out, `"k":"v"`)

	buf.Reset()
	cfg.Log.Format = "text"
	cfg.Log.Level = "debug"
	cfg.NewLogger(&buf).Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}
