package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Metric is the per-day operational snapshot shown on the dashboard.
type Metric struct {
	ID                int64           `json:"id"`
	Date              shared.Date     `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	ActiveTables      int64           `json:"active_tables"`
	PendingOrders     int64           `json:"pending_orders"`
	LowStockItems     int64           `json:"low_stock_items"`
	StaffOnDuty       int64           `json:"staff_on_duty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// WidgetKind enumerates the dashboard widget variants.
type WidgetKind string

const (
	WidgetSalesSummary    WidgetKind = "SALES_SUMMARY"
	WidgetTopItems        WidgetKind = "TOP_ITEMS"
	WidgetInventoryAlerts WidgetKind = "INVENTORY_ALERTS"
	WidgetStaffSchedule   WidgetKind = "STAFF_SCHEDULE"
	WidgetRecentOrders    WidgetKind = "RECENT_ORDERS"
	WidgetDailyRevenue    WidgetKind = "DAILY_REVENUE"
)

// Valid reports whether k is a known widget kind.
func (k WidgetKind) Valid() bool {
	switch k {
	case WidgetSalesSummary, WidgetTopItems, WidgetInventoryAlerts,
		WidgetStaffSchedule, WidgetRecentOrders, WidgetDailyRevenue:
		return true
	}
	return false
}

// RefreshRates lists the accepted widget refresh intervals in seconds.
var RefreshRates = []int{300, 600, 1800, 3600, 7200}

func validRefreshRate(rate int) bool {
	for _, r := range RefreshRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Widget is a configured dashboard tile.
type Widget struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kind        WidgetKind `json:"widget_type"`
	RefreshRate int        `json:"refresh_rate"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WidgetInput configures a widget. RefreshRate defaults to 300.
type WidgetInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Kind        WidgetKind `json:"widget_type" validate:"required"`
	RefreshRate int        `json:"refresh_rate"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// OrderState is the slice of an order the metric refresh needs.
type OrderState struct {
	Status  string
	TableID *int64
	Total   decimal.Decimal
}

// RecentOrder is an order row in the summary feed.
type RecentOrder struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	TableID     *int64          `json:"table_id,omitempty"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LowStockItem is a stock item at or below its reorder level.
type LowStockItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// TopItem is a best-selling menu item.
type TopItem struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ShiftSlot is one scheduled shift of the day.
type ShiftSlot struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Shift      string `json:"shift"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// RevenuePoint is one day of revenue history.
type RevenuePoint struct {
	Date       shared.Date     `json:"date"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// Summary is the cached dashboard landing payload.
type Summary struct {
	Metric       Metric         `json:"metric"`
	RecentOrders []RecentOrder  `json:"recent_orders"`
	LowStock     []LowStockItem `json:"low_stock"`
}

// WidgetData is the payload rendered by one widget.
type WidgetData struct {
	Widget Widget `json:"widget"`
	Data   any    `json:"data"`
}
