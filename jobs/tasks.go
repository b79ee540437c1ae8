package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsDaily recomputes one daily report.
	TaskReportsDaily = "reports:daily"
	// TaskReportsMonthly recomputes one monthly report.
	TaskReportsMonthly = "reports:monthly"
	// TaskReportsHourly recomputes one hourly bucket or a whole day of buckets.
	TaskReportsHourly = "reports:hourly"
	// TaskDashboardMetrics refreshes the dashboard metric row.
	TaskDashboardMetrics = "dashboard:metrics"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
)

// DailyReportPayload targets a business date. An empty Date means yesterday
// in the report timezone, which is what the nightly cron sends.
type DailyReportPayload struct {
	Date    string `json:"date,omitempty"`
	ActorID int64  `json:"actor_id,omitempty"`
}

// MonthlyReportPayload targets a calendar month.
type MonthlyReportPayload struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	ActorID int64 `json:"actor_id,omitempty"`
}

// HourlyReportPayload targets one hour of a day, or all 24 when Hour is nil.
type HourlyReportPayload struct {
	Date string `json:"date"`
	Hour *int   `json:"hour,omitempty"`
}

// DashboardRefreshPayload targets a business date. An empty Date means today.
type DashboardRefreshPayload struct {
	Date string `json:"date,omitempty"`
}

// IdempotencyCleanupPayload sets how long keys are kept. Zero uses the job default.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewDailyReportTask constructs an Asynq task.
func NewDailyReportTask(payload DailyReportPayload) (*asynq.Task, error) {
	return newTask(TaskReportsDaily, payload)
}

// NewMonthlyReportTask constructs an Asynq task.
func NewMonthlyReportTask(payload MonthlyReportPayload) (*asynq.Task, error) {
	return newTask(TaskReportsMonthly, payload)
}

// NewHourlyReportTask constructs an Asynq task.
func NewHourlyReportTask(payload HourlyReportPayload) (*asynq.Task, error) {
	return newTask(TaskReportsHourly, payload)
}

// NewDashboardRefreshTask constructs an Asynq task.
func NewDashboardRefreshTask(payload DashboardRefreshPayload) (*asynq.Task, error) {
	return newTask(TaskDashboardMetrics, payload)
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, payload)
}

func newTask(kind string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, data), nil
}
