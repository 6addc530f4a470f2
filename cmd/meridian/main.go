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

	"github.com/meridian-wms/meridian-wms/internal/app"
	"github.com/meridian-wms/meridian-wms/internal/batch"
	"github.com/meridian-wms/meridian-wms/internal/observability"
	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/packing"
	"github.com/meridian-wms/meridian-wms/internal/picking"
	"github.com/meridian-wms/meridian-wms/internal/platform/cache"
	"github.com/meridian-wms/meridian-wms/internal/platform/db"
	"github.com/meridian-wms/meridian-wms/internal/replenishment"
	"github.com/meridian-wms/meridian-wms/internal/scan"
	"github.com/meridian-wms/meridian-wms/internal/shared"
	"github.com/meridian-wms/meridian-wms/jobs"
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

	// Scan session replay degrades gracefully when Redis is down, so a
	// failed ping is not fatal.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, scan session replay disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	pickingRepo := picking.NewRepository(dbpool)
	pickingService := picking.NewService(ordersRepo, pickingRepo)
	pickingHandler := picking.NewHandler(logger, pickingService)

	scanRepo := scan.NewRepository(dbpool)
	scanCoordinator := scan.NewCoordinator(logger, scanRepo, metrics)
	scanRegistry := scan.NewRegistry()
	scanSessions := scan.NewSessionCache(redisClient, cfg.ScanSessionTTL)
	scanHandler := scan.NewHandler(logger, scanCoordinator, scanRegistry, scanSessions)

	notifier := batch.NewHTTPNotifier(cfg.PackingAPIURL, cfg.PackingTimeout)
	batchRepo := batch.NewRepository(dbpool)
	batchService := batch.NewService(logger, batchRepo, notifier, auditLogger, metrics, cfg.CompanyID)
	batchHandler := batch.NewHandler(logger, batchService, shared.NewIdempotencyStore(dbpool))

	replenishmentRepo := replenishment.NewRepository(dbpool)
	replenishmentService := replenishment.NewService(logger, replenishmentRepo, auditLogger)
	replenishmentHandler := replenishment.NewHandler(logger, replenishmentService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	packingRepo := packing.NewRepository(dbpool)
	packingHandler := packing.NewHandler(logger, packingRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		OrdersHandler:        ordersHandler,
		PackingHandler:       packingHandler,
		PickingHandler:       pickingHandler,
		ScanHandler:          scanHandler,
		BatchHandler:         batchHandler,
		ReplenishmentHandler: replenishmentHandler,
		JobHandler:           jobHandler,
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
