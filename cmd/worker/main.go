package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/warebase/warebase/internal/app"
	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/cart"
	jobmetrics "github.com/warebase/warebase/internal/jobs"
	"github.com/warebase/warebase/internal/orders"
	"github.com/warebase/warebase/internal/platform/cache"
	"github.com/warebase/warebase/internal/platform/db"
	"github.com/warebase/warebase/internal/products"
	"github.com/warebase/warebase/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	cartStore := cart.NewStore(redisClient, cfg.CartTTL)
	authorizer := authz.NewService(authz.NewRepository(pool), logger)
	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, authorizer, logger)
	ordersRepo := orders.NewRepository(pool)
	metrics := jobmetrics.NewMetrics(nil)

	handlers := jobs.NewHandlers(cartStore, productsService, ordersRepo,
		int64(cfg.LowStockThreshold), logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: "@every 1h", Task: jobs.NewCartExpireTask()},
			{Spec: "@every 15m", Task: jobs.NewLowStockScanTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
