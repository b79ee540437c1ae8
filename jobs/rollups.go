package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/trattoria-erp/trattoria/internal/dashboard"
	jobmetrics "github.com/trattoria-erp/trattoria/internal/jobs"
	"github.com/trattoria-erp/trattoria/internal/reports"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// ReportRunner is the slice of reports.Service the worker drives.
type ReportRunner interface {
	ComputeDaily(ctx context.Context, date shared.Date) (reports.DailyReport, error)
	ComputeMonthly(ctx context.Context, year, month int) (reports.MonthlyReport, error)
	ComputeHourly(ctx context.Context, date shared.Date, hour int) (reports.SalesAnalytics, error)
	ComputeHourlyDay(ctx context.Context, date shared.Date) ([]reports.SalesAnalytics, error)
}

// MetricsRefresher is the slice of dashboard.Service the worker drives.
type MetricsRefresher interface {
	RefreshMetrics(ctx context.Context, date shared.Date) (dashboard.Metric, error)
	Today() shared.Date
}

// RollupJob handles report and dashboard tasks.
type RollupJob struct {
	Reports   ReportRunner
	Dashboard MetricsRefresher
	Location  *time.Location
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewRollupJob wires dependencies for the rollup handlers.
func NewRollupJob(reportsSvc ReportRunner, dashboardSvc MetricsRefresher, loc *time.Location, logger *slog.Logger, metrics *jobmetrics.Metrics) *RollupJob {
	if loc == nil {
		loc = time.UTC
	}
	return &RollupJob{
		Reports:   reportsSvc,
		Dashboard: dashboardSvc,
		Location:  loc,
		Logger:    logger,
		Metrics:   metrics,
		clock:     time.Now,
	}
}

// Handlers lists the task handlers served by the job.
func (j *RollupJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskReportsDaily, Handler: j.HandleDaily},
		{Type: TaskReportsMonthly, Handler: j.HandleMonthly},
		{Type: TaskReportsHourly, Handler: j.HandleHourly},
		{Type: TaskDashboardMetrics, Handler: j.HandleDashboard},
	}
}

// HandleDaily processes TaskReportsDaily tasks.
func (j *RollupJob) HandleDaily(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("daily report: handler not configured")
	}
	var payload DailyReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date := shared.DateOf(j.now().In(j.location())).AddDays(-1)
	if payload.Date != "" {
		parsed, err := shared.ParseDate(payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	tracker := j.Metrics.Track(TaskReportsDaily)
	defer func() { resultErr = tracker.End(resultErr) }()

	report, err := j.Reports.ComputeDaily(withActor(ctx, payload.ActorID), date)
	if err != nil {
		j.logger().Error("daily report", slog.String("date", date.String()), slog.Any("error", err))
		return skipInvalid(err)
	}
	j.logger().Info("daily report job done", slog.String("date", date.String()), slog.String("net_profit", report.NetProfit.StringFixed(2)))
	return nil
}

// HandleMonthly processes TaskReportsMonthly tasks.
func (j *RollupJob) HandleMonthly(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("monthly report: handler not configured")
	}
	var payload MonthlyReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskReportsMonthly)
	defer func() { resultErr = tracker.End(resultErr) }()

	if _, err := j.Reports.ComputeMonthly(withActor(ctx, payload.ActorID), payload.Year, payload.Month); err != nil {
		j.logger().Error("monthly report", slog.Int("year", payload.Year), slog.Int("month", payload.Month), slog.Any("error", err))
		return skipInvalid(err)
	}
	return nil
}

// HandleHourly processes TaskReportsHourly tasks.
func (j *RollupJob) HandleHourly(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("hourly report: handler not configured")
	}
	var payload HourlyReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskReportsHourly)
	defer func() { resultErr = tracker.End(resultErr) }()

	if payload.Hour != nil {
		_, err = j.Reports.ComputeHourly(ctx, date, *payload.Hour)
	} else {
		_, err = j.Reports.ComputeHourlyDay(ctx, date)
	}
	if err != nil {
		j.logger().Error("hourly report", slog.String("date", date.String()), slog.Any("error", err))
		return skipInvalid(err)
	}
	return nil
}

// HandleDashboard processes TaskDashboardMetrics tasks.
func (j *RollupJob) HandleDashboard(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	var payload DashboardRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date := j.Dashboard.Today()
	if payload.Date != "" {
		parsed, err := shared.ParseDate(payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	tracker := j.Metrics.Track(TaskDashboardMetrics)
	defer func() { resultErr = tracker.End(resultErr) }()

	if _, err := j.Dashboard.RefreshMetrics(ctx, date); err != nil {
		j.logger().Error("dashboard refresh", slog.String("date", date.String()), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *RollupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}

func (j *RollupJob) location() *time.Location {
	if j.Location != nil {
		return j.Location
	}
	return time.UTC
}

func (j *RollupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func withActor(ctx context.Context, actorID int64) context.Context {
	if actorID == 0 {
		return ctx
	}
	return shared.ContextWithActor(ctx, actorID)
}

// skipInvalid stops retries for input the service will never accept.
func skipInvalid(err error) error {
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return errors.Join(err, asynq.SkipRetry)
	}
	return err
}
