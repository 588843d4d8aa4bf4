package respcache

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	c, err := New(client, DefaultConfig(), opts...)
	require.NoError(t, err)
	return c, mr
}

func entry(key, path string, created time.Time) *Entry {
	return &Entry{
		Key:       key,
		Status:    200,
		Headers:   map[string][]string{"Content-Type": {"application/json"}},
		Content:   []byte(`{"ok":true}`),
		CreatedAt: created,
		Path:      path,
	}
}

func TestFingerprint(t *testing.T) {
	get := func(target string) string {
		t.Helper()
		key, err := Fingerprint("api:", httptest.NewRequest("GET", target, nil), "7")
		require.NoError(t, err)
		return key
	}

	t.Run("query order does not matter", func(t *testing.T) {
		a := get("/api/v1/projects?page=2&filters[name]=Alpha&per_page=5")
		b := get("/api/v1/projects?per_page=5&filters[name]=Alpha&page=2")
		assert.Equal(t, a, b)
		assert.Regexp(t, `^api:[0-9a-f]{64}$`, a)
	})

	t.Run("facets change the key", func(t *testing.T) {
		base := get("/api/v1/projects?page=1")
		assert.NotEqual(t, base, get("/api/v1/projects?page=2"))
		assert.NotEqual(t, base, get("/api/v1/projects?page=1&filters[status]=active"))
		assert.NotEqual(t, base, get("/api/v1/timesheets?page=1"))
	})

	t.Run("users are isolated and guests share a key", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/projects", nil)
		a, _ := Fingerprint("api:", r, "1")
		b, _ := Fingerprint("api:", r, "2")
		g1, _ := Fingerprint("api:", r, "")
		g2, _ := Fingerprint("api:", r, "guest")
		assert.NotEqual(t, a, b)
		assert.Equal(t, g1, g2)
	})
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("ttl lookup order", func(t *testing.T) {
		assert.Equal(t, 60*time.Minute, cfg.TTLFor("/api/v1/attributes"))
		assert.Equal(t, 60*time.Minute, cfg.TTLFor("api/v1/attributes/4"))
		assert.Equal(t, 5*time.Minute, cfg.TTLFor("/api/v1/timesheets?page=2"))
		assert.Equal(t, 15*time.Minute, cfg.TTLFor("/api/v1/projects"))

		cfg := cfg
		cfg.ShortRoutes = append(cfg.ShortRoutes, Route{Prefix: "api/v1/attributes", TTL: time.Minute})
		assert.Equal(t, 60*time.Minute, cfg.TTLFor("/api/v1/attributes"))
	})

	t.Run("exclusions and methods", func(t *testing.T) {
		assert.True(t, cfg.Excludes("/api/v1/login"))
		assert.True(t, cfg.Excludes("/api/v1/cache"))
		assert.False(t, cfg.Excludes("/api/v1/projects"))
		assert.True(t, cfg.Cacheable("get"))
		assert.False(t, cfg.Cacheable("POST"))
	})
}

func TestCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.Get(ctx, "api:nothing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Put(ctx, entry("api:a", "/api/v1/projects", time.Now()), time.Minute))
	got, err := c.Get(ctx, "api:a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), got.Content)
	assert.Equal(t, "/api/v1/projects", got.Path)

	assert.Equal(t, time.Minute, mr.TTL("api:a"))
	n, err := c.Tracked(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, "api/v1/projects", mr.HGet("api:index:paths", "api:a"))
}

func TestCache_ForgetRoute(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	now := time.Now()

	require.NoError(t, c.Put(ctx, entry("api:p1", "/api/v1/projects", now), time.Hour))
	require.NoError(t, c.Put(ctx, entry("api:p2", "/api/v1/projects/3", now), time.Hour))
	require.NoError(t, c.Put(ctx, entry("api:t1", "/api/v1/timesheets", now), time.Hour))

	n, err := c.ForgetRoute(ctx, "/api/v1/projects")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("api:p1"))
	assert.False(t, mr.Exists("api:p2"))
	assert.True(t, mr.Exists("api:t1"))

	tracked, err := c.Tracked(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tracked)
	assert.Equal(t, int64(2), c.Stats().Evictions)

	n, err = c.ForgetRoute(ctx, "reports")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_Flush(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	now := time.Now()
	for _, k := range []string{"api:1", "api:2", "api:3"} {
		require.NoError(t, c.Put(ctx, entry(k, "/api/v1/projects", now), time.Hour))
	}

	n, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, mr.Exists("api:index"))
	assert.False(t, mr.Exists("api:2"))
}

func TestCache_SweepOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)
	c, mr := newTestCache(t, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Put(ctx, entry("api:old", "/api/v1/projects", now.Add(-4*24*time.Hour)), 30*24*time.Hour))
	require.NoError(t, c.Put(ctx, entry("api:edge", "/api/v1/projects", now.Add(-3*24*time.Hour)), 30*24*time.Hour))
	require.NoError(t, c.Put(ctx, entry("api:young", "/api/v1/projects", now.Add(-time.Hour)), 30*24*time.Hour))

	n, err := c.SweepOlderThan(ctx, 3*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists("api:old"))
	assert.False(t, mr.Exists("api:edge"))
	assert.True(t, mr.Exists("api:young"))

	members, err := mr.ZMembers("api:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"api:young"}, members)
	paths, err := mr.HKeys("api:index:paths")
	require.NoError(t, err)
	assert.Equal(t, []string{"api:young"}, paths)
}

func TestCache_Prune(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	now := time.Now()

	require.NoError(t, c.Put(ctx, entry("api:short", "/api/v1/timesheets", now), time.Minute))
	require.NoError(t, c.Put(ctx, entry("api:long", "/api/v1/attributes", now), time.Hour))
	mr.FastForward(2 * time.Minute)

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tracked, err := c.Tracked(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tracked)
}

func TestSweeper_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c, mr := newTestCache(t, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Put(ctx, entry("api:stale", "/api/v1/projects", now.Add(-96*time.Hour)), 10*24*time.Hour))
	require.NoError(t, c.Put(ctx, entry("api:expiring", "/api/v1/timesheets", now), time.Minute))
	require.NoError(t, c.Put(ctx, entry("api:fresh", "/api/v1/projects", now), time.Hour))
	mr.FastForward(2 * time.Minute)

	swept, pruned, err := NewSweeper(c, 72*time.Hour, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 1, pruned)
	assert.True(t, mr.Exists("api:fresh"))

	// Job must not panic even with nothing left to do.
	NewSweeper(c, 72*time.Hour, nil).Job()()
}
