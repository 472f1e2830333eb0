package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medoffice/scheduling/internal/api"
	"github.com/medoffice/scheduling/internal/appointment"
	"github.com/medoffice/scheduling/internal/clock"
	"github.com/medoffice/scheduling/internal/config"
	"github.com/medoffice/scheduling/internal/db"
	"github.com/medoffice/scheduling/internal/ratelimit"
	redisclient "github.com/medoffice/scheduling/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("rate_limit_backend", cfg.RateLimitBackend),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis. Only the rate limiter uses it: with the memory backend a
	// missing Redis degrades the readiness report, nothing else.
	var rdb *redis.Client
	rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		if cfg.RateLimitBackend == "redis" {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		logger.Warn("redis unavailable, continuing with in-memory rate limiting", zap.Error(err))
		rdb = nil
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis")
	}

	clk := clock.System()

	var store ratelimit.Store
	if cfg.RateLimitBackend == "redis" {
		store = ratelimit.NewRedisStore(rdb, clk)
	} else {
		store = ratelimit.NewMemoryStore(clk)
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitMax, cfg.RateLimitWindow, clk)

	repo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(repo, logger)

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Limiter: limiter,
		Logger:  logger,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
		SlotDefaults: api.SlotDefaults{
			OpenHour:    cfg.OfficeOpenHour,
			CloseHour:   cfg.OfficeCloseHour,
			SlotMinutes: cfg.SlotMinutes,
			Timezone:    cfg.DefaultTimezone,
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("api-server stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("logger init: " + err.Error())
	}
	return logger
}
