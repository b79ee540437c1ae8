package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trattoria-erp/trattoria/internal/inventory"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	OrdersCreated(ctx context.Context, start, end time.Time) ([]OrderState, error)
	CountLowStock(ctx context.Context) (int64, error)
	CountStaffOnDuty(ctx context.Context, date shared.Date) (int64, error)
	UpsertMetric(ctx context.Context, m Metric) (Metric, error)
	GetMetric(ctx context.Context, date shared.Date) (Metric, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
	TopItems(ctx context.Context, start, end time.Time, limit int) ([]TopItem, error)
	ShiftsOn(ctx context.Context, date shared.Date) ([]ShiftSlot, error)
	RevenueBetween(ctx context.Context, from, to shared.Date) ([]RevenuePoint, error)
	ListWidgets(ctx context.Context, activeOnly bool) ([]Widget, error)
	GetWidget(ctx context.Context, id int64) (Widget, error)
	CreateWidget(ctx context.Context, w Widget) (Widget, error)
}

// Gauge publishes the low stock count.
type Gauge interface {
	SetLowStock(count int)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Gauge    Gauge
	Logger   *slog.Logger
}

const (
	recentOrderLimit = 10
	topItemLimit     = 5
	revenueDays      = 7
)

// Service assembles dashboard read models.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	group  singleflight.Group
	loc    *time.Location
	gauge  Gauge
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. A nil cache loads every summary directly.
func NewService(repo RepositoryPort, cache *Cache, cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, loc: loc, gauge: cfg.Gauge, logger: logger, now: time.Now}
}

// Today returns the current calendar day in the dashboard location.
func (s *Service) Today() shared.Date {
	return shared.DateOf(s.now().In(s.loc))
}

// RefreshMetrics recomputes and stores the metric of date.
func (s *Service) RefreshMetrics(ctx context.Context, date shared.Date) (Metric, error) {
	if date.IsZero() {
		return Metric{}, shared.NewValidationError("date", "is required")
	}
	start, end := date.Range(s.loc)
	orders, err := s.repo.OrdersCreated(ctx, start, end)
	if err != nil {
		return Metric{}, err
	}
	metric := BuildMetric(date, orders)
	if metric.LowStockItems, err = s.repo.CountLowStock(ctx); err != nil {
		return Metric{}, fmt.Errorf("count low stock: %w", err)
	}
	if metric.StaffOnDuty, err = s.repo.CountStaffOnDuty(ctx, date); err != nil {
		return Metric{}, fmt.Errorf("count staff on duty: %w", err)
	}
	saved, err := s.repo.UpsertMetric(ctx, metric)
	if err != nil {
		return Metric{}, fmt.Errorf("upsert dashboard metric: %w", err)
	}
	if s.gauge != nil {
		s.gauge.SetLowStock(int(saved.LowStockItems))
	}
	if err := s.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
	return saved, nil
}

// Summary returns the landing payload of date, served from cache when warm.
// Concurrent misses for the same key share one load.
func (s *Service) Summary(ctx context.Context, date shared.Date) (Summary, error) {
	if date.IsZero() {
		date = s.Today()
	}
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary", date.String())
	if err != nil {
		return Summary{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out Summary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.loadSummary(ctx, date)
		})
		return out, err
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) loadSummary(ctx context.Context, date shared.Date) (Summary, error) {
	metric, err := s.repo.GetMetric(ctx, date)
	if errors.Is(err, shared.ErrNotFound) {
		metric = BuildMetric(date, nil)
	} else if err != nil {
		return Summary{}, err
	}
	recent, err := s.repo.RecentOrders(ctx, recentOrderLimit)
	if err != nil {
		return Summary{}, err
	}
	low, err := s.repo.LowStock(ctx)
	if err != nil {
		return Summary{}, err
	}
	if recent == nil {
		recent = []RecentOrder{}
	}
	if low == nil {
		low = []LowStockItem{}
	}
	return Summary{Metric: metric, RecentOrders: recent, LowStock: low}, nil
}

// Bump drops every cached summary.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// HandleStockChanged invalidates cached summaries after a stock movement.
func (s *Service) HandleStockChanged(ctx context.Context, evt inventory.StockChangedEvent) error {
	if evt.NeedsReorder {
		s.logger.Info("stock item at reorder level",
			slog.Int64("item_id", evt.ItemID),
			slog.String("balance", evt.Balance.StringFixed(2)))
	}
	return s.Bump(ctx)
}

// ListWidgets returns configured widgets.
func (s *Service) ListWidgets(ctx context.Context, activeOnly bool) ([]Widget, error) {
	return s.repo.ListWidgets(ctx, activeOnly)
}

// CreateWidget validates and stores a widget.
func (s *Service) CreateWidget(ctx context.Context, in WidgetInput) (Widget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Widget{}, shared.NewValidationError("name", "is required")
	}
	if !in.Kind.Valid() {
		return Widget{}, shared.NewValidationError("widget_type", "is not a known widget type")
	}
	rate := in.RefreshRate
	if rate == 0 {
		rate = RefreshRates[0]
	}
	if !validRefreshRate(rate) {
		return Widget{}, shared.NewValidationError("refresh_rate", "must be one of 300 600 1800 3600 7200")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.CreateWidget(ctx, Widget{Name: name, Kind: in.Kind, RefreshRate: rate, IsActive: active})
}

// WidgetData renders the payload of widget id for today.
func (s *Service) WidgetData(ctx context.Context, id int64) (WidgetData, error) {
	widget, err := s.repo.GetWidget(ctx, id)
	if err != nil {
		return WidgetData{}, err
	}
	today := s.Today()
	start, end := today.Range(s.loc)

	var data any
	switch widget.Kind {
	case WidgetSalesSummary:
		summary, err := s.Summary(ctx, today)
		if err != nil {
			return WidgetData{}, err
		}
		data = summary.Metric
	case WidgetTopItems:
		data, err = s.repo.TopItems(ctx, start, end, topItemLimit)
	case WidgetInventoryAlerts:
		data, err = s.repo.LowStock(ctx)
	case WidgetStaffSchedule:
		data, err = s.repo.ShiftsOn(ctx, today)
	case WidgetRecentOrders:
		data, err = s.repo.RecentOrders(ctx, recentOrderLimit)
	case WidgetDailyRevenue:
		data, err = s.repo.RevenueBetween(ctx, today.AddDays(-(revenueDays - 1)), today.AddDays(1))
	default:
		return WidgetData{}, shared.NewValidationError("widget_type", fmt.Sprintf("unsupported widget type %q", widget.Kind))
	}
	if err != nil {
		return WidgetData{}, err
	}
	return WidgetData{Widget: widget, Data: data}, nil
}
