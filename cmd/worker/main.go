package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/trattoria-erp/trattoria/internal/app"
	"github.com/trattoria-erp/trattoria/internal/dashboard"
	jobmetrics "github.com/trattoria-erp/trattoria/internal/jobs"
	"github.com/trattoria-erp/trattoria/internal/observability"
	"github.com/trattoria-erp/trattoria/internal/platform/cache"
	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/reports"
	"github.com/trattoria-erp/trattoria/internal/shared"
	"github.com/trattoria-erp/trattoria/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	dashboardService := dashboard.NewService(
		dashboard.NewRepository(pool),
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		dashboard.ServiceConfig{Location: cfg.Location, Gauge: jobMetrics, Logger: logger},
	)
	reportsService := reports.NewService(reports.NewRepository(pool), reports.ServiceConfig{
		Location: cfg.Location,
		Metrics:  metrics,
		Cache:    dashboardService,
		Logger:   logger,
	})

	rollups := jobs.NewRollupJob(reportsService, dashboardService, cfg.Location, logger, jobMetrics)
	maintenance := jobs.NewMaintenanceJob(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger, jobMetrics)

	var cron []jobs.CronRegistration
	if cfg.ReportDailyCron != "" {
		task, err := jobs.NewDailyReportTask(jobs.DailyReportPayload{})
		if err != nil {
			logger.Error("build daily report task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.ReportDailyCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}
	if cfg.DashboardRefreshCron != "" {
		task, err := jobs.NewDashboardRefreshTask(jobs.DashboardRefreshPayload{})
		if err != nil {
			logger.Error("build dashboard refresh task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.DashboardRefreshCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(1)}})
	}
	if cfg.IdempotencyCleanupCron != "" {
		task, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{})
		if err != nil {
			logger.Error("build idempotency cleanup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.IdempotencyCleanupCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location,
		Logger:      logger,
		Handlers:    append(rollups.Handlers(), maintenance.Handlers()...),
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency), slog.Int("cron_entries", len(cron)))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
