package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Redis     string    `json:"redis"`
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	version     string
	db          Pinger
	rdb         redis.UniversalClient
}

func NewHealthHandler(serviceName, version string, db Pinger, rdb redis.UniversalClient) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		rdb:         rdb,
	}
}

// HealthCheck answers 503 when the database is down. Redis being down
// only degrades caching, so it is reported but stays 200.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "up"
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = "down"
		}
	}
	redisStatus := "disabled"
	if h.rdb != nil {
		redisStatus = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	status, code := "healthy", http.StatusOK
	switch {
	case dbStatus == "down":
		status, code = "unhealthy", http.StatusServiceUnavailable
	case redisStatus == "down":
		status = "degraded"
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
