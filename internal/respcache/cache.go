// Package respcache caches successful GET responses in Redis and keeps
// an index of every stored key so entries can be swept by route or age.
package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

const batchSize = 500

// Entry is one cached response.
type Entry struct {
	Key       string              `json:"key"`
	Status    int                 `json:"status"`
	Headers   map[string][]string `json:"headers"`
	Content   []byte              `json:"content"`
	ETag      string              `json:"etag"`
	CreatedAt time.Time           `json:"created_at"`
	Path      string              `json:"path"`
}

// Cache stores entries under "<prefix><sha256>" and indexes them in a
// sorted set scored by creation time plus a hash of key -> path. Store
// and index always change together inside MULTI/EXEC.
type Cache struct {
	rdb     redis.UniversalClient
	cfg     Config
	logger  *zap.Logger
	metrics *metrics
	now     func() time.Time
}

type Option func(*Cache)

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func WithMeter(m metric.Meter) Option {
	return func(c *Cache) {
		if mm, err := newMetrics(m); err == nil {
			c.metrics = mm
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(rdb redis.UniversalClient, cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}
	c := &Cache{
		rdb:    rdb,
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		m, err := newMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("cache metrics: %w", err)
		}
		c.metrics = m
	}
	return c, nil
}

func (c *Cache) Config() Config { return c.cfg }

func (c *Cache) Stats() Stats { return c.metrics.snapshot() }

func (c *Cache) indexKey() string { return c.cfg.Prefix + "index" }

func (c *Cache) pathsKey() string { return c.cfg.Prefix + "index:paths" }

// Get loads the entry stored under key.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &e, nil
}

// Put stores e for ttl and records it in the index.
func (c *Cache) Put(ctx context.Context, e *Entry, ttl time.Duration) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, e.Key, data, ttl)
		pipe.ZAdd(ctx, c.indexKey(), redis.Z{Score: float64(e.CreatedAt.Unix()), Member: e.Key})
		pipe.HSet(ctx, c.pathsKey(), e.Key, trimPath(e.Path))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Forget removes the entry a GET of r by user would be served from.
func (c *Cache) Forget(ctx context.Context, r *http.Request, user string) (bool, error) {
	key, err := Fingerprint(c.cfg.Prefix, r, user)
	if err != nil {
		return false, err
	}
	n, err := c.remove(ctx, []string{key})
	if err != nil {
		return false, err
	}
	c.metrics.evicted(ctx, "invalidate", n)
	return n > 0, nil
}

// ForgetRoute removes every entry whose path contains pattern and
// returns how many were removed.
func (c *Cache) ForgetRoute(ctx context.Context, pattern string) (int, error) {
	pattern = trimPath(pattern)
	var keys []string
	iter := c.rdb.HScan(ctx, c.pathsKey(), 0, "", batchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !iter.Next(ctx) {
			break
		}
		if strings.Contains(iter.Val(), pattern) {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cache index: %w", err)
	}

	n, err := c.remove(ctx, keys)
	if err != nil {
		return n, err
	}
	c.metrics.evicted(ctx, "route", n)
	return n, nil
}

// Flush removes every indexed entry and returns the count.
func (c *Cache) Flush(ctx context.Context) (int, error) {
	keys, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read cache index: %w", err)
	}
	n, err := c.remove(ctx, keys)
	if err != nil {
		return n, err
	}
	c.metrics.evicted(ctx, "flush", n)
	return n, nil
}

// SweepOlderThan removes entries created at least maxAge ago.
func (c *Cache) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := c.now().Add(-maxAge).Unix()
	keys, err := c.rdb.ZRangeByScore(ctx, c.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read cache index: %w", err)
	}
	n, err := c.remove(ctx, keys)
	if err != nil {
		return n, err
	}
	c.metrics.evicted(ctx, "age", n)
	return n, nil
}

// pruneScript drops index members whose entry has already expired. It
// runs atomically so a concurrent Put of the same key is never unindexed.
var pruneScript = redis.NewScript(`
local removed = 0
for _, key in ipairs(ARGV) do
  if redis.call('EXISTS', key) == 0 then
    redis.call('ZREM', KEYS[1], key)
    redis.call('HDEL', KEYS[2], key)
    removed = removed + 1
  end
end
return removed
`)

// Prune removes index members whose entry expired through its TTL.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	keys, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read cache index: %w", err)
	}
	total := 0
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		args := make([]any, 0, end-start)
		for _, k := range keys[start:end] {
			args = append(args, k)
		}
		n, err := pruneScript.Run(ctx, c.rdb, []string{c.indexKey(), c.pathsKey()}, args...).Int()
		if err != nil {
			return total, fmt.Errorf("failed to prune cache index: %w", err)
		}
		total += n
	}
	return total, nil
}

// Tracked reports how many keys the index currently holds.
func (c *Cache) Tracked(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, c.indexKey()).Result()
}

// remove deletes keys from the store and the index in one transaction
// per batch and returns how many index members went away.
func (c *Cache) remove(ctx context.Context, keys []string) (int, error) {
	removed := 0
	for start := 0; start < len(keys); start += batchSize {
		batch := keys[start:min(start+batchSize, len(keys))]
		members := make([]any, len(batch))
		for i, k := range batch {
			members[i] = k
		}

		var zrem *redis.IntCmd
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, batch...)
			zrem = pipe.ZRem(ctx, c.indexKey(), members...)
			pipe.HDel(ctx, c.pathsKey(), batch...)
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("failed to delete cache entries: %w", err)
		}
		removed += int(zrem.Val())
	}
	return removed, nil
}
