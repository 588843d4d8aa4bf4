package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/config"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

type fixture struct {
	mr    *miniredis.Miniredis
	cache *respcache.Cache
	now   time.Time
}

func newFixture(t *testing.T) (*fixture, Deps) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{mr: mr, now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cfg := respcache.DefaultConfig()
	cfg.MaxAge = 7 * 24 * time.Hour
	c, err := respcache.New(rdb, cfg, respcache.WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.cache = c

	deps := Deps{
		Config: func() (*config.Config, error) { return &config.Config{}, nil },
		OpenDB: nil,
		OpenCache: func(context.Context, *config.Config, *zap.Logger) (*respcache.Cache, func(), error) {
			return f.cache, func() {}, nil
		},
		Logger: func(*config.Config) (*zap.Logger, error) { return zap.NewNop(), nil },
	}
	return f, deps
}

func (f *fixture) put(t *testing.T, path string, age time.Duration) {
	t.Helper()
	r := httptest.NewRequest("GET", path, nil)
	key, err := respcache.Fingerprint(f.cache.Config().Prefix, r, "1")
	require.NoError(t, err)
	require.NoError(t, f.cache.Put(context.Background(), &respcache.Entry{
		Key:       key,
		Status:    200,
		Content:   []byte(`[]`),
		CreatedAt: f.now.Add(-age),
		Path:      path,
	}, time.Hour))
}

func run(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := New(deps)
	cli.SetOut(&out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestVersionSkipsConfig(t *testing.T) {
	deps := Deps{Config: func() (*config.Config, error) { return nil, errors.New("no config") }}
	out, err := run(t, deps, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tsctl version dev")
}

func TestConfigErrorsSurface(t *testing.T) {
	_, deps := newFixture(t)
	deps.Config = func() (*config.Config, error) { return nil, errors.New("JWT_SECRET is required") }
	_, err := run(t, deps, "cache", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestCacheClear(t *testing.T) {
	t.Run("by route", func(t *testing.T) {
		f, deps := newFixture(t)
		f.put(t, "/api/v1/projects", 0)
		f.put(t, "/api/v1/projects/2", 0)
		f.put(t, "/api/v1/users", 0)

		out, err := run(t, deps, "cache", "clear", "--route", "projects")
		require.NoError(t, err)
		assert.Contains(t, out, "cleared 2 cached responses")

		n, err := f.cache.Tracked(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("everything", func(t *testing.T) {
		f, deps := newFixture(t)
		f.put(t, "/api/v1/projects", 0)
		f.put(t, "/api/v1/users", 0)

		out, err := run(t, deps, "cache", "clear")
		require.NoError(t, err)
		assert.Contains(t, out, "cleared 2 cached responses")
	})

	t.Run("open failure", func(t *testing.T) {
		_, deps := newFixture(t)
		deps.OpenCache = func(context.Context, *config.Config, *zap.Logger) (*respcache.Cache, func(), error) {
			return nil, nil, errors.New("dial tcp: refused")
		}
		_, err := run(t, deps, "cache", "clear")
		assert.Error(t, err)
	})
}

func TestCacheSweep(t *testing.T) {
	f, deps := newFixture(t)
	f.put(t, "/api/v1/projects", 10*24*time.Hour)
	f.put(t, "/api/v1/users", 3*24*time.Hour)
	f.put(t, "/api/v1/timesheets", time.Hour)

	out, err := run(t, deps, "cache", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "swept 1")

	out, err = run(t, deps, "cache", "sweep", "--days", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "swept 1")

	n, err := f.cache.Tracked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
