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
	"github.com/redis/go-redis/v9"

	"github.com/samudra-erp/samudra-erp/internal/agencies"
	"github.com/samudra-erp/samudra-erp/internal/app"
	"github.com/samudra-erp/samudra-erp/internal/auth"
	"github.com/samudra-erp/samudra-erp/internal/contracts"
	"github.com/samudra-erp/samudra-erp/internal/documents"
	"github.com/samudra-erp/samudra-erp/internal/finance"
	"github.com/samudra-erp/samudra-erp/internal/notifications"
	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/roles"
	"github.com/samudra-erp/samudra-erp/internal/shipments"
	"github.com/samudra-erp/samudra-erp/internal/users"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
	"github.com/samudra-erp/samudra-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnMaxLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	hasher := auth.NewHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, issuer, hasher)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	usersService := users.NewService(users.NewRepository(pool), hasher)
	usersHandler := users.NewHandler(logger, usersService)

	rolesService := roles.NewService(roles.NewRepository(pool))
	rolesHandler := roles.NewHandler(logger, rolesService)

	agenciesService := agencies.NewService(agencies.NewRepository(pool))
	agenciesHandler := agencies.NewHandler(logger, agenciesService)

	contractsService := contracts.NewService(contracts.NewRepository(pool))
	contractsHandler := contracts.NewHandler(logger, contractsService)

	shipmentsService := shipments.NewService(shipments.NewRepository(pool))
	shipmentsHandler := shipments.NewHandler(logger, shipmentsService)

	financeService := finance.NewService(finance.NewRepository(pool))
	financeHandler := finance.NewHandler(logger, financeService)

	documentsService := documents.NewService(documents.NewRepository(pool))
	documentsHandler := documents.NewHandler(logger, documentsService)

	unreadCache := notifications.NewUnreadCache(redisClient, 5*time.Minute)
	notificationsService := notifications.NewService(notifications.NewRepository(pool), unreadCache)
	notificationsHandler := notifications.NewHandler(notificationsService)

	workflowService := workflow.NewService(workflow.NewRepository(pool))
	workflowHandler := workflow.NewHandler(workflowService)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthMiddleware:       authMiddleware,
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		RolesHandler:         rolesHandler,
		AgenciesHandler:      agenciesHandler,
		ContractsHandler:     contractsHandler,
		ShipmentsHandler:     shipmentsHandler,
		FinanceHandler:       financeHandler,
		DocumentsHandler:     documentsHandler,
		NotificationsHandler: notificationsHandler,
		WorkflowHandler:      workflowHandler,
		JobsClient:           jobsClient,
		Metrics:              metrics,
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
