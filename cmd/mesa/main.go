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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mesa-ops/mesa/internal/app"
	"github.com/mesa-ops/mesa/internal/assets"
	"github.com/mesa-ops/mesa/internal/auth"
	"github.com/mesa-ops/mesa/internal/authgate"
	"github.com/mesa-ops/mesa/internal/clients"
	"github.com/mesa-ops/mesa/internal/dashboard"
	"github.com/mesa-ops/mesa/internal/observability"
	"github.com/mesa-ops/mesa/internal/orders"
	"github.com/mesa-ops/mesa/internal/rbac"
	"github.com/mesa-ops/mesa/internal/shared"
	"github.com/mesa-ops/mesa/internal/trading"
	"github.com/mesa-ops/mesa/internal/users"
	"github.com/mesa-ops/mesa/jobs"
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "mesa_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	resolver := auth.NewResolver(authRepo, redisClient, cfg.RoleCacheTTL, logger)
	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager, csrfManager)

	gate := &authgate.Gate{
		Resolver:      resolver,
		Routes:        rbac.DefaultRouteMap(),
		Logger:        logger,
		LoginPath:     "/auth/login",
		DeniedPath:    "/access-denied",
		RequireMapped: cfg.RequireMappedRoutes,
		Observe:       metrics.RecordAuthz,
	}
	guards := rbac.Middleware{Identity: authgate.IdentityLookup, Logger: logger}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo, jobsClient)
	clientsHandler := clients.NewHandler(logger, clientsService, guards)

	assetsRepo := assets.NewRepository(dbpool)
	assetsService := assets.NewService(assetsRepo, jobsClient)
	assetsHandler := assets.NewHandler(logger, assetsService, guards)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, guards)

	tradingService := trading.NewService(ordersRepo, logger)
	tradingHandler := trading.NewHandler(logger, tradingService, guards)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, resolver, logger)
	usersHandler := users.NewHandler(logger, usersService, guards)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, guards)

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
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Gate:             gate,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		OrdersHandler:    ordersHandler,
		TradingHandler:   tradingHandler,
		ClientsHandler:   clientsHandler,
		AssetsHandler:    assetsHandler,
		UsersHandler:     usersHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
