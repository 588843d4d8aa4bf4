package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

// CacheHandler exposes the response cache admin operations.
type CacheHandler struct {
	cache  *respcache.Cache
	logger *zap.Logger
	debug  bool
}

func NewCacheHandler(cache *respcache.Cache, logger *zap.Logger, debug bool) *CacheHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHandler{cache: cache, logger: logger, debug: debug}
}

func (h *CacheHandler) Register(rg *gin.RouterGroup) {
	rg.DELETE("", h.clear)
	rg.GET("/stats", h.stats)
}

// clear flushes everything, or with ?route= only entries whose path
// contains it.
func (h *CacheHandler) clear(c *gin.Context) {
	ctx := c.Request.Context()
	route := c.Query("route")

	var (
		n   int
		err error
	)
	if route != "" {
		n, err = h.cache.ForgetRoute(ctx, route)
	} else {
		n, err = h.cache.Flush(ctx)
	}
	if err != nil {
		apperr.Render(c, apperr.Internal(err), h.debug)
		return
	}
	logging.For(ctx, h.logger).Info("cache cleared", zap.String("route", route), zap.Int("cleared", n))
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

func (h *CacheHandler) stats(c *gin.Context) {
	tracked, err := h.cache.Tracked(c.Request.Context())
	if err != nil {
		apperr.Render(c, apperr.Internal(err), h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": h.cache.Config().Enabled,
		"tracked": tracked,
		"stats":   h.cache.Stats(),
	})
}
