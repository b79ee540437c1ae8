package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/trattoria-erp/trattoria/internal/jobs"
)

// KeyCleaner prunes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MaintenanceJob handles housekeeping tasks.
type MaintenanceJob struct {
	Keys      KeyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewMaintenanceJob wires dependencies for the maintenance handlers.
func NewMaintenanceJob(keys KeyCleaner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *MaintenanceJob {
	return &MaintenanceJob{Keys: keys, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handlers lists the task handlers served by the job.
func (j *MaintenanceJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskIdempotencyCleanup, Handler: j.HandleIdempotencyCleanup},
	}
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (j *MaintenanceJob) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := j.Retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() { resultErr = tracker.End(resultErr) }()

	removed, err := j.Keys.Cleanup(ctx, retention)
	if err != nil {
		j.logger().Error("idempotency cleanup", slog.Duration("retention", retention), slog.Any("error", err))
		return skipInvalid(err)
	}
	j.logger().Info("idempotency cleanup done", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return nil
}

func (j *MaintenanceJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
