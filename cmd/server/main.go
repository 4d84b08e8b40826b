package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/cache"
	"insight-flow/backend/internal/config"
	"insight-flow/backend/internal/database"
	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/middleware"
	"insight-flow/backend/internal/monitoring"
	"insight-flow/backend/internal/router"
	"insight-flow/backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// The logger is not configured yet.
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register("database", func(ctx context.Context) error { return pool.Health() })

	var denylistOpts []cache.DenylistOption
	if cfg.Redis.Enabled {
		store := cache.NewRedisStore(cache.RedisOptionsFrom(cfg))
		defer store.Close()
		if err := store.Health(context.Background()); err != nil {
			log.Warn().Err(err).Str("addr", cfg.GetRedisAddr()).Msg("redis unreachable at startup, denylist falls back to memory")
		}
		health.Register("redis", store.Health)
		denylistOpts = append(denylistOpts, cache.WithRedis(store, cache.NewCircuitBreaker(nil)))
	}
	denylist := cache.NewDenylist(denylistOpts...)

	jobs := worker.NewWorker(30 * time.Second)
	if err := jobs.Register("denylist-sweep", time.Minute, func(ctx context.Context) error {
		denylist.Sweep()
		return nil
	}); err != nil {
		log.Fatal().Err(err).Msg("register job")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
		if err := jobs.Register("rate-limit-cleanup", cfg.RateLimit.CleanupInterval, func(ctx context.Context) error {
			limiter.Cleanup(cfg.RateLimit.CleanupInterval)
			return nil
		}); err != nil {
			log.Fatal().Err(err).Msg("register job")
		}
	}

	engine, err := router.NewRouter(router.Dependencies{
		Config:      cfg,
		DB:          pool.DB,
		Tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Denylist:    denylist,
		Health:      health,
		RateLimiter: limiter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs.Start(ctx)
	defer jobs.Stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
