package respcache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the scheduled age based eviction job.
type Sweeper struct {
	cache  *Cache
	maxAge time.Duration
	logger *zap.Logger
}

func NewSweeper(cache *Cache, maxAge time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{cache: cache, maxAge: maxAge, logger: logger}
}

// Run removes entries older than the max age and prunes index members
// whose entry already expired.
func (s *Sweeper) Run(ctx context.Context) (swept, pruned int, err error) {
	swept, err = s.cache.SweepOlderThan(ctx, s.maxAge)
	if err != nil {
		return swept, 0, err
	}
	pruned, err = s.cache.Prune(ctx)
	return swept, pruned, err
}

// Job adapts Run to a cron callback.
func (s *Sweeper) Job() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		swept, pruned, err := s.Run(ctx)
		if err != nil {
			s.logger.Error("cache sweep failed", zap.Error(err))
			return
		}
		s.logger.Info("cache sweep finished",
			zap.Int("swept", swept),
			zap.Int("pruned", pruned),
			zap.Duration("max_age", s.maxAge),
		)
	}
}
