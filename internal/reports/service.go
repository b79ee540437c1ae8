package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDaily(ctx context.Context, date shared.Date) (DailyReport, error)
	ListDaily(ctx context.Context, page shared.Page) ([]DailyReport, int, error)
	GetMonthly(ctx context.Context, year, month int) (MonthlyReport, error)
	ListMonthly(ctx context.Context, page shared.Page) ([]MonthlyReport, int, error)
	ListHourly(ctx context.Context, date shared.Date) ([]SalesAnalytics, error)
}

// MetricsPort counts generated rollups.
type MetricsPort interface {
	RecordReport(kind string)
}

// Enqueuer hands rollups to the background worker.
type Enqueuer interface {
	EnqueueDaily(ctx context.Context, date shared.Date, actorID int64) error
	EnqueueMonthly(ctx context.Context, year, month int, actorID int64) error
	EnqueueHourly(ctx context.Context, date shared.Date, hour *int) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// Location maps calendar days and hours to instants.
	Location *time.Location
	Metrics  MetricsPort
	Cache    shared.CacheInvalidator
	Enqueuer Enqueuer
	Logger   *slog.Logger
}

// Service computes and serves rollups.
type Service struct {
	repo     RepositoryPort
	loc      *time.Location
	metrics  MetricsPort
	cache    shared.CacheInvalidator
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		loc:      loc,
		metrics:  cfg.Metrics,
		cache:    cfg.Cache,
		enqueuer: cfg.Enqueuer,
		logger:   logger,
		now:      time.Now,
	}
}

const (
	minYear = 2000
	maxYear = 9999
)

func validateDate(date shared.Date) error {
	if date.IsZero() {
		return shared.NewValidationError("date", "is required")
	}
	if date.Year() < minYear || date.Year() > maxYear {
		return shared.NewValidationError("date", fmt.Sprintf("year must be between %d and %d", minYear, maxYear))
	}
	return nil
}

func validatePeriod(year, month int) error {
	if year < minYear || year > maxYear {
		return shared.NewValidationError("year", fmt.Sprintf("must be between %d and %d", minYear, maxYear))
	}
	if month < 1 || month > 12 {
		return shared.NewValidationError("month", "must be between 1 and 12")
	}
	return nil
}

func validateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return shared.NewValidationError("hour", "must be between 0 and 23")
	}
	return nil
}

func generatedBy(ctx context.Context) *int64 {
	if id := shared.ActorFromContext(ctx); id > 0 {
		return &id
	}
	return nil
}

// ============================================================================
// GENERATION
// ============================================================================

// ComputeDaily rolls up date and overwrites any previous report for it.
func (s *Service) ComputeDaily(ctx context.Context, date shared.Date) (DailyReport, error) {
	if err := validateDate(date); err != nil {
		return DailyReport{}, err
	}
	start, end := date.Range(s.loc)
	var saved DailyReport
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orders, err := tx.CompletedOrdersCreated(ctx, start, end)
		if err != nil {
			return err
		}
		stock, err := tx.StockCosts(ctx, start, end)
		if err != nil {
			return err
		}
		labor, err := tx.LaborShifts(ctx, date)
		if err != nil {
			return err
		}
		report := RollupDaily(date, orders, stock, labor)
		report.GeneratedBy = generatedBy(ctx)
		saved, err = tx.UpsertDaily(ctx, report)
		if err != nil {
			return fmt.Errorf("upsert daily report: %w", err)
		}
		return nil
	})
	if err != nil {
		return DailyReport{}, err
	}
	s.generated(ctx, KindDaily, slog.String("date", date.String()))
	return saved, nil
}

// ComputeMonthly sums the stored daily reports of the month.
func (s *Service) ComputeMonthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	if err := validatePeriod(year, month); err != nil {
		return MonthlyReport{}, err
	}
	from, to := MonthRange(year, time.Month(month))
	var saved MonthlyReport
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dailies, err := tx.DailyReportsBetween(ctx, from, to)
		if err != nil {
			return err
		}
		report := RollupMonthly(year, time.Month(month), dailies)
		report.GeneratedBy = generatedBy(ctx)
		saved, err = tx.UpsertMonthly(ctx, report)
		if err != nil {
			return fmt.Errorf("upsert monthly report: %w", err)
		}
		return nil
	})
	if err != nil {
		return MonthlyReport{}, err
	}
	s.generated(ctx, KindMonthly, slog.Int("year", year), slog.Int("month", month))
	return saved, nil
}

// ComputeHourly rolls up the orders completed during hour on date.
func (s *Service) ComputeHourly(ctx context.Context, date shared.Date, hour int) (SalesAnalytics, error) {
	if err := validateDate(date); err != nil {
		return SalesAnalytics{}, err
	}
	if err := validateHour(hour); err != nil {
		return SalesAnalytics{}, err
	}
	var saved SalesAnalytics
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		saved, err = s.hourly(ctx, tx, date, hour)
		return err
	})
	if err != nil {
		return SalesAnalytics{}, err
	}
	s.generated(ctx, KindHourly, slog.String("date", date.String()), slog.Int("hour", hour))
	return saved, nil
}

// ComputeHourlyDay regenerates all 24 hourly buckets of date.
func (s *Service) ComputeHourlyDay(ctx context.Context, date shared.Date) ([]SalesAnalytics, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	buckets := make([]SalesAnalytics, 0, 24)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		buckets = buckets[:0]
		for hour := 0; hour < 24; hour++ {
			bucket, err := s.hourly(ctx, tx, date, hour)
			if err != nil {
				return err
			}
			buckets = append(buckets, bucket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.generated(ctx, KindHourly, slog.String("date", date.String()), slog.Int("hours", len(buckets)))
	return buckets, nil
}

func (s *Service) hourly(ctx context.Context, tx TxRepository, date shared.Date, hour int) (SalesAnalytics, error) {
	start, end := HourRange(date, hour, s.loc)
	orders, err := tx.CompletedOrdersFinished(ctx, start, end)
	if err != nil {
		return SalesAnalytics{}, err
	}
	saved, err := tx.UpsertHourly(ctx, RollupHourly(date, hour, orders))
	if err != nil {
		return SalesAnalytics{}, fmt.Errorf("upsert hourly analytics %02d: %w", hour, err)
	}
	return saved, nil
}

func (s *Service) generated(ctx context.Context, kind Kind, attrs ...any) {
	if s.metrics != nil {
		s.metrics.RecordReport(string(kind))
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
		}
	}
	s.logger.Info("report generated", append([]any{slog.String("kind", string(kind))}, attrs...)...)
}

// ============================================================================
// ASYNC GENERATION
// ============================================================================

func (s *Service) requireEnqueuer() error {
	if s.enqueuer == nil {
		return shared.NewValidationError("async", "background jobs are not configured")
	}
	return nil
}

// QueueDaily schedules ComputeDaily on the worker.
func (s *Service) QueueDaily(ctx context.Context, date shared.Date) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if err := s.requireEnqueuer(); err != nil {
		return err
	}
	return s.enqueuer.EnqueueDaily(ctx, date, shared.ActorFromContext(ctx))
}

// QueueMonthly schedules ComputeMonthly on the worker.
func (s *Service) QueueMonthly(ctx context.Context, year, month int) error {
	if err := validatePeriod(year, month); err != nil {
		return err
	}
	if err := s.requireEnqueuer(); err != nil {
		return err
	}
	return s.enqueuer.EnqueueMonthly(ctx, year, month, shared.ActorFromContext(ctx))
}

// QueueHourly schedules one hourly bucket, or the full day when hour is nil.
func (s *Service) QueueHourly(ctx context.Context, date shared.Date, hour *int) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if hour != nil {
		if err := validateHour(*hour); err != nil {
			return err
		}
	}
	if err := s.requireEnqueuer(); err != nil {
		return err
	}
	return s.enqueuer.EnqueueHourly(ctx, date, hour)
}

// ============================================================================
// READS
// ============================================================================

// GetDaily returns the stored report for date.
func (s *Service) GetDaily(ctx context.Context, date shared.Date) (DailyReport, error) {
	if err := validateDate(date); err != nil {
		return DailyReport{}, err
	}
	return s.repo.GetDaily(ctx, date)
}

// ListDaily pages stored daily reports.
func (s *Service) ListDaily(ctx context.Context, page shared.Page) ([]DailyReport, shared.Pagination, error) {
	list, total, err := s.repo.ListDaily(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// GetMonthly returns the stored report for (year, month).
func (s *Service) GetMonthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	if err := validatePeriod(year, month); err != nil {
		return MonthlyReport{}, err
	}
	return s.repo.GetMonthly(ctx, year, month)
}

// ListMonthly pages stored monthly reports.
func (s *Service) ListMonthly(ctx context.Context, page shared.Page) ([]MonthlyReport, shared.Pagination, error) {
	list, total, err := s.repo.ListMonthly(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// ListHourly returns the stored hourly buckets of date.
func (s *Service) ListHourly(ctx context.Context, date shared.Date) ([]SalesAnalytics, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListHourly(ctx, date)
}

// Today returns the current calendar day in the report location.
func (s *Service) Today() shared.Date {
	return shared.DateOf(s.now().In(s.loc))
}

// Overview returns today's daily report and the current month's report.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	today := s.Today()
	out := Overview{Today: today}
	daily, err := s.repo.GetDaily(ctx, today)
	switch {
	case err == nil:
		out.Daily = &daily
	case !errors.Is(err, shared.ErrNotFound):
		return Overview{}, err
	}
	monthly, err := s.repo.GetMonthly(ctx, today.Year(), int(today.Month()))
	switch {
	case err == nil:
		out.Monthly = &monthly
	case !errors.Is(err, shared.ErrNotFound):
		return Overview{}, err
	}
	return out, nil
}
