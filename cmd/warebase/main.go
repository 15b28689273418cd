package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/warebase/warebase/internal/addresses"
	"github.com/warebase/warebase/internal/app"
	"github.com/warebase/warebase/internal/auth"
	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/cart"
	"github.com/warebase/warebase/internal/observability"
	"github.com/warebase/warebase/internal/platform/cache"
	"github.com/warebase/warebase/internal/platform/db"
	"github.com/warebase/warebase/internal/orders"
	"github.com/warebase/warebase/internal/products"
	"github.com/warebase/warebase/internal/roles"
	"github.com/warebase/warebase/internal/suppliers"
	"github.com/warebase/warebase/internal/users"
	"github.com/warebase/warebase/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	authzRepo := authz.NewRepository(dbpool)
	authorizer := authz.NewService(authzRepo, logger)
	authzMiddleware := authz.Middleware{Service: authorizer, Logger: logger, Mode: cfg.AuthzMode}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, authorizer, tokens, cfg.AuthzMode == authz.ModeClaims)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, logger)
	usersHandler := users.NewHandler(logger, usersService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo, authorizer, logger)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, authorizer, logger)
	productsHandler := products.NewHandler(logger, productsService)

	cartStore := cart.NewStore(redisClient, cfg.CartTTL)
	cartService := cart.NewService(cartStore, productsService, logger)
	cartHandler := cart.NewHandler(logger, cartService)

	addressesRepo := addresses.NewRepository(dbpool)
	addressesService := addresses.NewService(addressesRepo)
	addressesHandler := addresses.NewHandler(logger, addressesService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, authorizer, addressesRepo, cartService, productsService, jobClient, logger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		Authz:            authzMiddleware,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RolesHandler:     rolesHandler,
		SuppliersHandler: suppliersHandler,
		ProductsHandler:  productsHandler,
		CartHandler:      cartHandler,
		OrdersHandler:    ordersHandler,
		AddressesHandler: addressesHandler,
		JobsHandler:      jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
