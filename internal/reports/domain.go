package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Kind names a rollup granularity.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindMonthly Kind = "monthly"
	KindHourly  Kind = "hourly"
)

// DailyReport summarises one business day.
type DailyReport struct {
	ID                int64           `json:"id"`
	Date              shared.Date     `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	InventoryCost     decimal.Decimal `json:"inventory_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	GeneratedBy       *int64          `json:"generated_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MonthlyReport sums the daily reports of one month.
type MonthlyReport struct {
	ID                int64           `json:"id"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalOrders       int64           `json:"total_orders"`
	AverageDailySales decimal.Decimal `json:"average_daily_sales"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	InventoryCost     decimal.Decimal `json:"inventory_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	GeneratedBy       *int64          `json:"generated_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SalesAnalytics is the hourly sales bucket.
type SalesAnalytics struct {
	ID                int64           `json:"id"`
	Date              shared.Date     `json:"date"`
	Hour              int             `json:"hour"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	OrderCount        int64           `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Overview pairs today's daily report with the current month's report.
// Either is nil until generated.
type Overview struct {
	Today   shared.Date    `json:"today"`
	Daily   *DailyReport   `json:"daily"`
	Monthly *MonthlyReport `json:"monthly"`
}

// OrderFact is the slice of a completed order a rollup needs.
type OrderFact struct {
	Total decimal.Decimal
	Tax   decimal.Decimal
}

// StockCost is the slice of a stock transaction a rollup needs.
type StockCost struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LaborShift is a worked shift with the employee's hourly rate.
type LaborShift struct {
	CheckIn    time.Time
	CheckOut   time.Time
	HourlyRate decimal.Decimal
}

// DailyInput requests a daily rollup.
type DailyInput struct {
	Date shared.Date `json:"date"`
}

// MonthlyInput requests a monthly rollup.
type MonthlyInput struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"required"`
}

// HourlyInput requests one hourly bucket, or all 24 when Hour is omitted.
type HourlyInput struct {
	Date shared.Date `json:"date"`
	Hour *int        `json:"hour,omitempty"`
}
