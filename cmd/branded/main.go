package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/branded-hq/branded/internal/app"
	"github.com/branded-hq/branded/internal/observability"
	"github.com/branded-hq/branded/internal/platform/cache"
	"github.com/branded-hq/branded/internal/platform/db"
	"github.com/branded-hq/branded/internal/rbac"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var store rbac.AssignmentStore = rbac.NewPGStore(pool)
	if cfg.AssignmentCacheTTL > 0 {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, assignment cache disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			store = rbac.NewAssignmentCache(store, redisClient, cfg.AssignmentCacheTTL)
		}
	}

	metrics := observability.NewMetrics()

	service, err := rbac.NewService(rbac.ServiceParams{
		Registry: rbac.NewDefaultRegistry(),
		Matrix:   rbac.NewDefaultMatrix(),
		Store:    store,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Error("build rbac service", slog.Any("error", err))
		os.Exit(1)
	}

	mw := rbac.Middleware{Service: service, Logger: logger}
	handler := rbac.NewHandler(logger, service, mw)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		RBACHandler: handler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
