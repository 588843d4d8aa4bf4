package respcache

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

// Invalidator is what write handlers call after a successful mutation.
// Each path is forgotten for user as a synthetic GET, then every variant
// of the path (other users, filters, pages, items below it) is swept.
type Invalidator interface {
	Invalidate(ctx context.Context, user string, paths ...string)
}

// Invalidate implements Invalidator. Failures are logged, never returned,
// because the write they follow has already committed.
func (c *Cache) Invalidate(ctx context.Context, user string, paths ...string) {
	if !c.cfg.Enabled {
		return
	}
	log := logging.For(ctx, c.logger)
	for _, p := range paths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p, nil)
		if err != nil {
			log.Warn("bad invalidation path", zap.String("path", p), zap.Error(err))
			continue
		}
		if _, err := c.Forget(ctx, req, user); err != nil {
			c.fail(ctx, "invalidate", err)
			continue
		}
		if _, err := c.ForgetRoute(ctx, req.URL.Path); err != nil {
			c.fail(ctx, "invalidate", err)
		}
	}
}

// NopInvalidator is used when caching is disabled.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, string, ...string) {}
