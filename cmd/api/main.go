package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/config"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/cronjob"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/telemetry"
)

const serviceName = "timetrack-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	metrics, err := telemetry.Setup(cfg.Telemetry.MetricsExporter)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(sctx)
	}()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.URL(),
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	defer func() { _ = rdb.Close() }()

	cache, err := respcache.New(rdb, bootstrap.CacheConfig(cfg.Cache),
		respcache.WithLogger(logger.Named("respcache")),
		respcache.WithMeter(metrics.Meter("timetrack/respcache")),
	)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	scheduler := cronjob.NewScheduler(logger.Named("cron"))
	if cfg.Cache.Enabled {
		sweeper := respcache.NewSweeper(cache, cache.Config().MaxAge, logger.Named("respcache"))
		if err := scheduler.Add(cronjob.Job{Name: "cache-sweep", Spec: cfg.Cache.SweepSpec, Run: sweeper.Job()}); err != nil {
			return err
		}
	}
	if err := scheduler.Add(cronjob.Job{Name: "rate-limit-gc", Spec: "0 */5 * * * *", Run: func() { limiter.Forget() }}); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Debug:       cfg.App.Debug,
		StrictDates: cfg.App.StrictDateFilters,
		CORSOrigins: cfg.Server.CORSOrigins,
		DB:          pool,
		Pinger:      pool,
		Redis:       rdb,
		Cache:       cache,
		Limiter:     limiter,
		Meter:       metrics.Meter("timetrack/http"),
		Metrics:     metrics.Handler(),
		Logger:      logger,
		JWTSecret:   cfg.Auth.JWTSecret,
		JWTIssuer:   cfg.Auth.Issuer,
		TokenTTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.Bool("cache", cfg.Cache.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
