package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository reads dashboard figures from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const metricColumns = `id, metric_date, total_sales, total_orders, average_order_value,
active_tables, pending_orders, low_stock_items, staff_on_duty, updated_at`

func scanMetric(row pgx.Row) (Metric, error) {
	var (
		m   Metric
		day time.Time
	)
	err := row.Scan(&m.ID, &day, &m.TotalSales, &m.TotalOrders, &m.AverageOrderValue,
		&m.ActiveTables, &m.PendingOrders, &m.LowStockItems, &m.StaffOnDuty, &m.UpdatedAt)
	m.Date = shared.DateOf(day)
	return m, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// OrdersCreated returns the state of every order created in [start, end).
func (r *Repository) OrdersCreated(ctx context.Context, start, end time.Time) ([]OrderState, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, table_id, total FROM orders
WHERE created_at >= $1 AND created_at < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collect(rows, func(row pgx.Row) (OrderState, error) {
		var o OrderState
		err := row.Scan(&o.Status, &o.TableID, &o.Total)
		return o, err
	})
}

// CountLowStock counts items at or below their reorder level.
func (r *Repository) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_items WHERE quantity <= reorder_level`).Scan(&n)
	return n, err
}

// CountStaffOnDuty counts distinct employees marked PRESENT on date's schedules.
func (r *Repository) CountStaffOnDuty(ctx context.Context, date shared.Date) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT a.employee_id)
FROM attendance a JOIN schedules s ON s.id = a.schedule_id
WHERE s.shift_date = $1 AND a.status = 'PRESENT'`, date.Time()).Scan(&n)
	return n, err
}

// UpsertMetric stores m keyed by its date.
func (r *Repository) UpsertMetric(ctx context.Context, m Metric) (Metric, error) {
	return scanMetric(r.pool.QueryRow(ctx, `INSERT INTO dashboard_metrics
(metric_date, total_sales, total_orders, average_order_value, active_tables, pending_orders, low_stock_items, staff_on_duty)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (metric_date) DO UPDATE SET
total_sales = EXCLUDED.total_sales,
total_orders = EXCLUDED.total_orders,
average_order_value = EXCLUDED.average_order_value,
active_tables = EXCLUDED.active_tables,
pending_orders = EXCLUDED.pending_orders,
low_stock_items = EXCLUDED.low_stock_items,
staff_on_duty = EXCLUDED.staff_on_duty,
updated_at = NOW()
RETURNING `+metricColumns,
		m.Date.Time(), m.TotalSales, m.TotalOrders, m.AverageOrderValue,
		m.ActiveTables, m.PendingOrders, m.LowStockItems, m.StaffOnDuty))
}

// GetMetric fetches the stored metric of date.
func (r *Repository) GetMetric(ctx context.Context, date shared.Date) (Metric, error) {
	m, err := scanMetric(r.pool.QueryRow(ctx, `SELECT `+metricColumns+` FROM dashboard_metrics WHERE metric_date=$1`, date.Time()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Metric{}, shared.NewNotFoundError("dashboard metric", date.String())
	}
	return m, err
}

// RecentOrders returns the newest orders.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_number, table_id, status, total, created_at
FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (RecentOrder, error) {
		var o RecentOrder
		err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.Total, &o.CreatedAt)
		return o, err
	})
}

// LowStock lists items at or below their reorder level, emptiest first.
func (r *Repository) LowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, unit, quantity, reorder_level
FROM stock_items WHERE quantity <= reorder_level ORDER BY quantity - reorder_level, name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (LowStockItem, error) {
		var i LowStockItem
		err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.Quantity, &i.ReorderLevel)
		return i, err
	})
}

// TopItems ranks menu items by quantity sold on completed orders in [start, end).
func (r *Repository) TopItems(ctx context.Context, start, end time.Time, limit int) ([]TopItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT m.id, m.name, SUM(oi.quantity)::bigint, SUM(oi.subtotal)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN menu_items m ON m.id = oi.menu_item_id
WHERE o.status = 'COMPLETED' AND o.created_at >= $1 AND o.created_at < $2
GROUP BY m.id, m.name
ORDER BY SUM(oi.quantity) DESC, m.name
LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (TopItem, error) {
		var i TopItem
		err := row.Scan(&i.MenuItemID, &i.Name, &i.Quantity, &i.Revenue)
		return i, err
	})
}

// ShiftsOn lists the scheduled shifts of date.
func (r *Repository) ShiftsOn(ctx context.Context, date shared.Date) ([]ShiftSlot, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, TRIM(u.first_name || ' ' || u.last_name), s.shift,
to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI')
FROM schedules s
JOIN employees e ON e.id = s.employee_id
JOIN users u ON u.id = e.user_id
WHERE s.shift_date = $1
ORDER BY s.start_time, u.last_name`, date.Time())
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (ShiftSlot, error) {
		var s ShiftSlot
		err := row.Scan(&s.EmployeeID, &s.Name, &s.Shift, &s.StartTime, &s.EndTime)
		return s, err
	})
}

// RevenueBetween returns daily report sales for [from, to) ordered by date.
func (r *Repository) RevenueBetween(ctx context.Context, from, to shared.Date) ([]RevenuePoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT report_date, total_sales FROM daily_reports
WHERE report_date >= $1 AND report_date < $2 ORDER BY report_date`, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (RevenuePoint, error) {
		var (
			p   RevenuePoint
			day time.Time
		)
		err := row.Scan(&day, &p.TotalSales)
		p.Date = shared.DateOf(day)
		return p, err
	})
}

// ListWidgets returns configured widgets.
func (r *Repository) ListWidgets(ctx context.Context, activeOnly bool) ([]Widget, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, widget_type, refresh_rate, is_active, created_at
FROM dashboard_widgets WHERE ($1 = FALSE OR is_active) ORDER BY id`, activeOnly)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWidget)
}

// GetWidget fetches one widget.
func (r *Repository) GetWidget(ctx context.Context, id int64) (Widget, error) {
	w, err := scanWidget(r.pool.QueryRow(ctx, `SELECT id, name, widget_type, refresh_rate, is_active, created_at
FROM dashboard_widgets WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Widget{}, shared.NewNotFoundError("widget", id)
	}
	return w, err
}

// CreateWidget inserts a widget.
func (r *Repository) CreateWidget(ctx context.Context, w Widget) (Widget, error) {
	return scanWidget(r.pool.QueryRow(ctx, `INSERT INTO dashboard_widgets (name, widget_type, refresh_rate, is_active)
VALUES ($1, $2, $3, $4) RETURNING id, name, widget_type, refresh_rate, is_active, created_at`,
		w.Name, string(w.Kind), w.RefreshRate, w.IsActive))
}

func scanWidget(row pgx.Row) (Widget, error) {
	var w Widget
	err := row.Scan(&w.ID, &w.Name, &w.Kind, &w.RefreshRate, &w.IsActive, &w.CreatedAt)
	return w, err
}
