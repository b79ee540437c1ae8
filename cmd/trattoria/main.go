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

	"github.com/trattoria-erp/trattoria/internal/accounts"
	"github.com/trattoria-erp/trattoria/internal/app"
	"github.com/trattoria-erp/trattoria/internal/dashboard"
	"github.com/trattoria-erp/trattoria/internal/inventory"
	jobmetrics "github.com/trattoria-erp/trattoria/internal/jobs"
	"github.com/trattoria-erp/trattoria/internal/menu"
	"github.com/trattoria-erp/trattoria/internal/observability"
	"github.com/trattoria-erp/trattoria/internal/orders"
	"github.com/trattoria-erp/trattoria/internal/platform/cache"
	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/reports"
	"github.com/trattoria-erp/trattoria/internal/shared"
	"github.com/trattoria-erp/trattoria/internal/staff"
	"github.com/trattoria-erp/trattoria/jobs"
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

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	dashboardService := dashboard.NewService(
		dashboard.NewRepository(dbpool),
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		dashboard.ServiceConfig{Location: cfg.Location, Gauge: jobMetrics, Logger: logger},
	)

	menuService := menu.NewService(menu.NewRepository(dbpool))
	ordersService := orders.NewService(orders.NewRepository(dbpool), menuService, auditLogger, orders.ServiceConfig{
		TaxRate:  cfg.TaxRate,
		Location: cfg.Location,
		Metrics:  metrics,
		Cache:    dashboardService,
		Logger:   logger,
	})
	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, idempotencyStore, inventory.ServiceConfig{
		Location: cfg.Location,
		Metrics:  metrics,
		Logger:   logger,
	}, dashboardService)
	staffService := staff.NewService(staff.NewRepository(dbpool), auditLogger, staff.ServiceConfig{
		Location: cfg.Location,
		Cache:    dashboardService,
		Logger:   logger,
	})
	accountsService := accounts.NewService(accounts.NewRepository(dbpool), accounts.ServiceConfig{
		NotificationTypes: cfg.NotificationTypes,
		Logger:            logger,
	})
	reportsService := reports.NewService(reports.NewRepository(dbpool), reports.ServiceConfig{
		Location: cfg.Location,
		Metrics:  metrics,
		Cache:    dashboardService,
		Enqueuer: jobClient,
		Logger:   logger,
	})

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		MenuHandler:      menu.NewHandler(logger, menuService),
		OrdersHandler:    orders.NewHandler(logger, ordersService),
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		StaffHandler:     staff.NewHandler(logger, staffService),
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
		JobHandler:       jobs.NewHandler(inspector, logger),
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
