package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trattoria-erp/trattoria/internal/dashboard"
	jobmetrics "github.com/trattoria-erp/trattoria/internal/jobs"
	"github.com/trattoria-erp/trattoria/internal/reports"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

type fakeReports struct {
	daily    []shared.Date
	actors   []int64
	monthly  [][2]int
	hours    []int
	fullDays []shared.Date
	err      error
}

func (f *fakeReports) ComputeDaily(ctx context.Context, date shared.Date) (reports.DailyReport, error) {
	f.daily = append(f.daily, date)
	f.actors = append(f.actors, shared.ActorFromContext(ctx))
	return reports.DailyReport{Date: date}, f.err
}

func (f *fakeReports) ComputeMonthly(ctx context.Context, year, month int) (reports.MonthlyReport, error) {
	f.monthly = append(f.monthly, [2]int{year, month})
	f.actors = append(f.actors, shared.ActorFromContext(ctx))
	return reports.MonthlyReport{Year: year, Month: month}, f.err
}

func (f *fakeReports) ComputeHourly(_ context.Context, date shared.Date, hour int) (reports.SalesAnalytics, error) {
	f.hours = append(f.hours, hour)
	return reports.SalesAnalytics{Date: date, Hour: hour}, f.err
}

func (f *fakeReports) ComputeHourlyDay(_ context.Context, date shared.Date) ([]reports.SalesAnalytics, error) {
	f.fullDays = append(f.fullDays, date)
	return nil, f.err
}

type fakeDashboard struct {
	today     shared.Date
	refreshed []shared.Date
}

func (f *fakeDashboard) RefreshMetrics(_ context.Context, date shared.Date) (dashboard.Metric, error) {
	f.refreshed = append(f.refreshed, date)
	return dashboard.Metric{Date: date}, nil
}

func (f *fakeDashboard) Today() shared.Date { return f.today }

func newTestJob(rep *fakeReports, dash *fakeDashboard) *RollupJob {
	job := NewRollupJob(rep, dash, time.UTC, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2024, 5, 11, 3, 0, 0, 0, time.UTC) }
	return job
}

func TestHandleDailyDefaultsToYesterday(t *testing.T) {
	rep := &fakeReports{}
	job := newTestJob(rep, nil)

	task, err := NewDailyReportTask(DailyReportPayload{})
	require.NoError(t, err)
	require.NoError(t, job.HandleDaily(context.Background(), task))

	require.Len(t, rep.daily, 1)
	require.Equal(t, "2024-05-10", rep.daily[0].String())
	require.Equal(t, int64(0), rep.actors[0])
}

func TestHandleDailyCarriesDateAndActor(t *testing.T) {
	rep := &fakeReports{}
	job := newTestJob(rep, nil)

	task, err := NewDailyReportTask(DailyReportPayload{Date: "2024-04-01", ActorID: 7})
	require.NoError(t, err)
	require.NoError(t, job.HandleDaily(context.Background(), task))

	require.Equal(t, "2024-04-01", rep.daily[0].String())
	require.Equal(t, int64(7), rep.actors[0])
}

func TestHandleDailyRejectsBadPayload(t *testing.T) {
	job := newTestJob(&fakeReports{}, nil)

	err := job.HandleDaily(context.Background(), asynq.NewTask(TaskReportsDaily, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewDailyReportTask(DailyReportPayload{Date: "10/05/2024"})
	require.NoError(t, err)
	require.ErrorIs(t, job.HandleDaily(context.Background(), task), asynq.SkipRetry)
}

func TestHandleMonthlySkipsRetryOnValidationError(t *testing.T) {
	rep := &fakeReports{err: shared.NewValidationError("month", "must be between 1 and 12")}
	job := newTestJob(rep, nil)

	task, err := NewMonthlyReportTask(MonthlyReportPayload{Year: 2024, Month: 13, ActorID: 3})
	require.NoError(t, err)
	err = job.HandleMonthly(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, [][2]int{{2024, 13}}, rep.monthly)
	require.Equal(t, int64(3), rep.actors[0])
}

func TestHandleMonthlyRetriesOnStorageError(t *testing.T) {
	boom := errors.New("connection reset")
	job := newTestJob(&fakeReports{err: boom}, nil)

	task, err := NewMonthlyReportTask(MonthlyReportPayload{Year: 2024, Month: 5})
	require.NoError(t, err)
	err = job.HandleMonthly(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleHourlySingleAndFullDay(t *testing.T) {
	rep := &fakeReports{}
	job := newTestJob(rep, nil)
	hour := 13

	single, err := NewHourlyReportTask(HourlyReportPayload{Date: "2024-05-10", Hour: &hour})
	require.NoError(t, err)
	require.NoError(t, job.HandleHourly(context.Background(), single))

	full, err := NewHourlyReportTask(HourlyReportPayload{Date: "2024-05-10"})
	require.NoError(t, err)
	require.NoError(t, job.HandleHourly(context.Background(), full))

	require.Equal(t, []int{13}, rep.hours)
	require.Len(t, rep.fullDays, 1)
}

func TestHandleDashboardDefaultsToToday(t *testing.T) {
	dash := &fakeDashboard{today: shared.NewDate(2024, time.May, 11)}
	job := newTestJob(nil, dash)

	task, err := NewDashboardRefreshTask(DashboardRefreshPayload{})
	require.NoError(t, err)
	require.NoError(t, job.HandleDashboard(context.Background(), task))

	task, err = NewDashboardRefreshTask(DashboardRefreshPayload{Date: "2024-05-01"})
	require.NoError(t, err)
	require.NoError(t, job.HandleDashboard(context.Background(), task))

	require.Equal(t, "2024-05-11", dash.refreshed[0].String())
	require.Equal(t, "2024-05-01", dash.refreshed[1].String())
}

func TestHandlersCoverEveryTask(t *testing.T) {
	job := newTestJob(&fakeReports{}, &fakeDashboard{})
	kinds := map[string]bool{}
	for _, h := range job.Handlers() {
		require.NotNil(t, h.Handler)
		kinds[h.Type] = true
	}
	require.Equal(t, map[string]bool{
		TaskReportsDaily:     true,
		TaskReportsMonthly:   true,
		TaskReportsHourly:    true,
		TaskDashboardMetrics: true,
	}, kinds)
}

func TestUnconfiguredJobFails(t *testing.T) {
	var job *RollupJob
	task, err := NewDailyReportTask(DailyReportPayload{})
	require.NoError(t, err)
	require.Error(t, job.HandleDaily(context.Background(), task))
}

func TestHourlyTaskPayload(t *testing.T) {
	hour := 0
	task, err := NewHourlyReportTask(HourlyReportPayload{Date: "2024-05-10", Hour: &hour})
	require.NoError(t, err)
	require.Equal(t, TaskReportsHourly, task.Type())
	require.JSONEq(t, `{"date":"2024-05-10","hour":0}`, string(task.Payload()))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, QueueDefault, body.Queue)
	require.Zero(t, body.Pending)
}
