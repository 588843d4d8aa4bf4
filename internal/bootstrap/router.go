package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	httpapi "github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/routes"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Debug       bool
	StrictDates bool
	CORSOrigins []string

	DB      db.Querier
	Pinger  httpapi.Pinger
	Redis   redis.UniversalClient
	Cache   *respcache.Cache
	Limiter *middleware.RateLimiter
	Meter   metric.Meter
	Metrics http.Handler
	Logger  *zap.Logger

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(apperr.Recovery(dep.Debug))
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	if dep.Meter != nil {
		mw, err := middleware.Metrics(dep.Meter)
		if err != nil {
			return nil, err
		}
		r.Use(mw)
	}
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))
	if dep.Limiter != nil {
		r.Use(dep.Limiter.Middleware())
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Pinger, dep.Redis)
	healthHandler.RegisterRoutes(r)
	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics))
	}

	routes.RegisterV1(r, routes.V1Deps{
		DB:          dep.DB,
		Redis:       dep.Redis,
		Cache:       dep.Cache,
		JWTSecret:   dep.JWTSecret,
		JWTIssuer:   dep.JWTIssuer,
		TokenTTL:    dep.TokenTTL,
		StrictDates: dep.StrictDates,
		Debug:       dep.Debug,
		Logger:      dep.Logger,
	})

	r.NoRoute(apperr.NoRoute)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-Id", "If-None-Match")
	cfg.ExposeHeaders = []string{"X-Request-Id", "X-Cache", "ETag"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
