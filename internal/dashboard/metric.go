package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// BuildMetric derives the sales and floor figures of one day from the
// orders created on it. Stock and staff counts are filled by the caller.
func BuildMetric(date shared.Date, orders []OrderState) Metric {
	sales := decimal.Zero
	var completed, pending int64
	tables := map[int64]struct{}{}
	for _, o := range orders {
		switch o.Status {
		case "COMPLETED":
			sales = sales.Add(o.Total)
			completed++
		case "PENDING", "PREPARING":
			pending++
			if o.TableID != nil {
				tables[*o.TableID] = struct{}{}
			}
		case "READY":
			if o.TableID != nil {
				tables[*o.TableID] = struct{}{}
			}
		}
	}
	return Metric{
		Date:              date,
		TotalSales:        shared.RoundMoney(sales),
		TotalOrders:       completed,
		AverageOrderValue: shared.SafeAverage(sales, completed),
		ActiveTables:      int64(len(tables)),
		PendingOrders:     pending,
	}
}
