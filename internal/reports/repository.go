package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository persists rollups in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository reads source facts and upserts rollups inside one transaction.
type TxRepository interface {
	CompletedOrdersCreated(ctx context.Context, start, end time.Time) ([]OrderFact, error)
	CompletedOrdersFinished(ctx context.Context, start, end time.Time) ([]OrderFact, error)
	StockCosts(ctx context.Context, start, end time.Time) ([]StockCost, error)
	LaborShifts(ctx context.Context, date shared.Date) ([]LaborShift, error)
	DailyReportsBetween(ctx context.Context, from, to shared.Date) ([]DailyReport, error)
	UpsertDaily(ctx context.Context, r DailyReport) (DailyReport, error)
	UpsertMonthly(ctx context.Context, r MonthlyReport) (MonthlyReport, error)
	UpsertHourly(ctx context.Context, r SalesAnalytics) (SalesAnalytics, error)
}

type txRepo struct {
	q db.DBTX
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

const dailyColumns = `id, report_date, total_sales, total_orders, average_order_value, total_tax,
inventory_cost, labor_cost, net_profit, generated_by, created_at, updated_at`

const monthlyColumns = `id, year, month, total_sales, total_orders, average_daily_sales, total_tax,
inventory_cost, labor_cost, net_profit, generated_by, created_at, updated_at`

const hourlyColumns = `id, report_date, hour, total_sales, order_count, average_order_value, created_at, updated_at`

func scanDaily(row pgx.Row) (DailyReport, error) {
	var (
		r   DailyReport
		day time.Time
	)
	err := row.Scan(&r.ID, &day, &r.TotalSales, &r.TotalOrders, &r.AverageOrderValue, &r.TotalTax,
		&r.InventoryCost, &r.LaborCost, &r.NetProfit, &r.GeneratedBy, &r.CreatedAt, &r.UpdatedAt)
	r.Date = shared.DateOf(day)
	return r, err
}

func scanMonthly(row pgx.Row) (MonthlyReport, error) {
	var r MonthlyReport
	err := row.Scan(&r.ID, &r.Year, &r.Month, &r.TotalSales, &r.TotalOrders, &r.AverageDailySales, &r.TotalTax,
		&r.InventoryCost, &r.LaborCost, &r.NetProfit, &r.GeneratedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanHourly(row pgx.Row) (SalesAnalytics, error) {
	var (
		r   SalesAnalytics
		day time.Time
	)
	err := row.Scan(&r.ID, &day, &r.Hour, &r.TotalSales, &r.OrderCount, &r.AverageOrderValue, &r.CreatedAt, &r.UpdatedAt)
	r.Date = shared.DateOf(day)
	return r, err
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

func scanOrderFact(row pgx.Row) (OrderFact, error) {
	var f OrderFact
	err := row.Scan(&f.Total, &f.Tax)
	return f, err
}

func (t *txRepo) CompletedOrdersCreated(ctx context.Context, start, end time.Time) ([]OrderFact, error) {
	rows, err := t.q.Query(ctx, `SELECT total, tax FROM orders
WHERE status = 'COMPLETED' AND created_at >= $1 AND created_at < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query completed orders: %w", err)
	}
	return collect(rows, scanOrderFact)
}

func (t *txRepo) CompletedOrdersFinished(ctx context.Context, start, end time.Time) ([]OrderFact, error) {
	rows, err := t.q.Query(ctx, `SELECT total, tax FROM orders
WHERE status = 'COMPLETED' AND completed_at >= $1 AND completed_at < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query orders completed in hour: %w", err)
	}
	return collect(rows, scanOrderFact)
}

func (t *txRepo) StockCosts(ctx context.Context, start, end time.Time) ([]StockCost, error) {
	rows, err := t.q.Query(ctx, `SELECT quantity, unit_price FROM stock_transactions
WHERE txn_date >= $1 AND txn_date < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query stock costs: %w", err)
	}
	return collect(rows, func(row pgx.Row) (StockCost, error) {
		var c StockCost
		err := row.Scan(&c.Quantity, &c.UnitPrice)
		return c, err
	})
}

func (t *txRepo) LaborShifts(ctx context.Context, date shared.Date) ([]LaborShift, error) {
	rows, err := t.q.Query(ctx, `SELECT a.check_in, a.check_out, e.hourly_rate
FROM attendance a
JOIN schedules s ON s.id = a.schedule_id
JOIN employees e ON e.id = a.employee_id
WHERE s.shift_date = $1 AND a.status = 'PRESENT'
AND a.check_in IS NOT NULL AND a.check_out IS NOT NULL`, date.Time())
	if err != nil {
		return nil, fmt.Errorf("query labor shifts: %w", err)
	}
	return collect(rows, func(row pgx.Row) (LaborShift, error) {
		var l LaborShift
		err := row.Scan(&l.CheckIn, &l.CheckOut, &l.HourlyRate)
		return l, err
	})
}

func (t *txRepo) DailyReportsBetween(ctx context.Context, from, to shared.Date) ([]DailyReport, error) {
	rows, err := t.q.Query(ctx, `SELECT `+dailyColumns+` FROM daily_reports
WHERE report_date >= $1 AND report_date < $2 ORDER BY report_date`, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("query daily reports: %w", err)
	}
	return collect(rows, scanDaily)
}

func (t *txRepo) UpsertDaily(ctx context.Context, r DailyReport) (DailyReport, error) {
	return scanDaily(t.q.QueryRow(ctx, `INSERT INTO daily_reports
(report_date, total_sales, total_orders, average_order_value, total_tax, inventory_cost, labor_cost, net_profit, generated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (report_date) DO UPDATE SET
total_sales = EXCLUDED.total_sales,
total_orders = EXCLUDED.total_orders,
average_order_value = EXCLUDED.average_order_value,
total_tax = EXCLUDED.total_tax,
inventory_cost = EXCLUDED.inventory_cost,
labor_cost = EXCLUDED.labor_cost,
net_profit = EXCLUDED.net_profit,
generated_by = EXCLUDED.generated_by,
updated_at = NOW()
RETURNING `+dailyColumns,
		r.Date.Time(), r.TotalSales, r.TotalOrders, r.AverageOrderValue, r.TotalTax,
		r.InventoryCost, r.LaborCost, r.NetProfit, r.GeneratedBy))
}

func (t *txRepo) UpsertMonthly(ctx context.Context, r MonthlyReport) (MonthlyReport, error) {
	return scanMonthly(t.q.QueryRow(ctx, `INSERT INTO monthly_reports
(year, month, total_sales, total_orders, average_daily_sales, total_tax, inventory_cost, labor_cost, net_profit, generated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (year, month) DO UPDATE SET
total_sales = EXCLUDED.total_sales,
total_orders = EXCLUDED.total_orders,
average_daily_sales = EXCLUDED.average_daily_sales,
total_tax = EXCLUDED.total_tax,
inventory_cost = EXCLUDED.inventory_cost,
labor_cost = EXCLUDED.labor_cost,
net_profit = EXCLUDED.net_profit,
generated_by = EXCLUDED.generated_by,
updated_at = NOW()
RETURNING `+monthlyColumns,
		r.Year, r.Month, r.TotalSales, r.TotalOrders, r.AverageDailySales, r.TotalTax,
		r.InventoryCost, r.LaborCost, r.NetProfit, r.GeneratedBy))
}

func (t *txRepo) UpsertHourly(ctx context.Context, r SalesAnalytics) (SalesAnalytics, error) {
	return scanHourly(t.q.QueryRow(ctx, `INSERT INTO sales_analytics
(report_date, hour, total_sales, order_count, average_order_value)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (report_date, hour) DO UPDATE SET
total_sales = EXCLUDED.total_sales,
order_count = EXCLUDED.order_count,
average_order_value = EXCLUDED.average_order_value,
updated_at = NOW()
RETURNING `+hourlyColumns,
		r.Date.Time(), r.Hour, r.TotalSales, r.OrderCount, r.AverageOrderValue))
}

// GetDaily fetches the report for date.
func (r *Repository) GetDaily(ctx context.Context, date shared.Date) (DailyReport, error) {
	out, err := scanDaily(r.pool.QueryRow(ctx, `SELECT `+dailyColumns+` FROM daily_reports WHERE report_date=$1`, date.Time()))
	if errors.Is(err, pgx.ErrNoRows) {
		return DailyReport{}, shared.NewNotFoundError("daily report", date.String())
	}
	return out, err
}

// ListDaily returns a page of daily reports, newest first.
func (r *Repository) ListDaily(ctx context.Context, page shared.Page) ([]DailyReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+dailyColumns+` FROM daily_reports
ORDER BY report_date DESC LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows, scanDaily)
	return out, total, err
}

// GetMonthly fetches the report for (year, month).
func (r *Repository) GetMonthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	out, err := scanMonthly(r.pool.QueryRow(ctx, `SELECT `+monthlyColumns+` FROM monthly_reports WHERE year=$1 AND month=$2`, year, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return MonthlyReport{}, shared.NewNotFoundError("monthly report", fmt.Sprintf("%04d-%02d", year, month))
	}
	return out, err
}

// ListMonthly returns a page of monthly reports, newest first.
func (r *Repository) ListMonthly(ctx context.Context, page shared.Page) ([]MonthlyReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM monthly_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+monthlyColumns+` FROM monthly_reports
ORDER BY year DESC, month DESC LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows, scanMonthly)
	return out, total, err
}

// ListHourly returns the hourly buckets of date ordered by hour.
func (r *Repository) ListHourly(ctx context.Context, date shared.Date) ([]SalesAnalytics, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+hourlyColumns+` FROM sales_analytics WHERE report_date=$1 ORDER BY hour`, date.Time())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanHourly)
}
