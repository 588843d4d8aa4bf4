package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, 72*time.Hour, cfg.Cache.MaxAge)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricsExporter)
	assert.Equal(t, "postgres://postgres:@localhost:5432/timetrack?sslmode=disable", cfg.Database.URL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("DB_DSN", "postgres://app@db/tt")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_DEFAULT_TTL_MINUTES", "30")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("FILTER_STRICT_DATES", "1")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("DB_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app@db/tt", cfg.Database.URL())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.App.Debug)
	assert.True(t, cfg.App.StrictDateFilters)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoad_RoutesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
long:
  - prefix: api/v1/attributes
    ttl: 2h
short:
  - prefix: api/v1/timesheets
    ttl: 1m
excluded:
  - api/v1/auth
  - api/v1/reports
`), 0o600))
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("CACHE_ROUTES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []RouteTTL{{Prefix: "api/v1/attributes", TTL: 2 * time.Hour}}, cfg.Cache.LongRoutes)
	assert.Equal(t, []RouteTTL{{Prefix: "api/v1/timesheets", TTL: time.Minute}}, cfg.Cache.ShortRoutes)
	assert.Equal(t, []string{"api/v1/auth", "api/v1/reports"}, cfg.Cache.Excluded)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("METRICS_EXPORTER", "statsd")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "METRICS_EXPORTER")
}
