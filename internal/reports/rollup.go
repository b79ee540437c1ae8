package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

var secondsPerHour = decimal.NewFromInt(3600)

// HoursWorked returns the fractional hours between check-in and check-out.
func HoursWorked(in, out time.Time) decimal.Decimal {
	if !out.After(in) {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(out.Sub(in) / time.Second)).Div(secondsPerHour)
}

// RollupDaily aggregates one day's completed orders, stock movements and
// worked shifts. An empty day yields a zero report.
func RollupDaily(date shared.Date, orders []OrderFact, stock []StockCost, labor []LaborShift) DailyReport {
	sales, tax := decimal.Zero, decimal.Zero
	for _, o := range orders {
		sales = sales.Add(o.Total)
		tax = tax.Add(o.Tax)
	}
	inventory := decimal.Zero
	for _, s := range stock {
		inventory = inventory.Add(s.Quantity.Mul(s.UnitPrice))
	}
	wages := decimal.Zero
	for _, l := range labor {
		wages = wages.Add(HoursWorked(l.CheckIn, l.CheckOut).Mul(l.HourlyRate))
	}

	count := int64(len(orders))
	report := DailyReport{
		Date:              date,
		TotalSales:        shared.RoundMoney(sales),
		TotalOrders:       count,
		AverageOrderValue: shared.SafeAverage(sales, count),
		TotalTax:          shared.RoundMoney(tax),
		InventoryCost:     shared.RoundMoney(inventory),
		LaborCost:         shared.RoundMoney(wages),
	}
	report.NetProfit = netProfit(report.TotalSales, report.TotalTax, report.InventoryCost, report.LaborCost)
	return report
}

// RollupMonthly sums the daily reports of (year, month). The caller passes
// only reports dated inside the month.
func RollupMonthly(year int, month time.Month, dailies []DailyReport) MonthlyReport {
	report := MonthlyReport{
		Year:          year,
		Month:         int(month),
		TotalSales:    decimal.Zero,
		TotalTax:      decimal.Zero,
		InventoryCost: decimal.Zero,
		LaborCost:     decimal.Zero,
		NetProfit:     decimal.Zero,
	}
	for _, d := range dailies {
		report.TotalSales = report.TotalSales.Add(d.TotalSales)
		report.TotalOrders += d.TotalOrders
		report.TotalTax = report.TotalTax.Add(d.TotalTax)
		report.InventoryCost = report.InventoryCost.Add(d.InventoryCost)
		report.LaborCost = report.LaborCost.Add(d.LaborCost)
		report.NetProfit = report.NetProfit.Add(d.NetProfit)
	}
	report.AverageDailySales = shared.SafeAverage(report.TotalSales, int64(len(dailies)))
	return report
}

// RollupHourly aggregates the orders completed inside one hour.
func RollupHourly(date shared.Date, hour int, orders []OrderFact) SalesAnalytics {
	sales := decimal.Zero
	for _, o := range orders {
		sales = sales.Add(o.Total)
	}
	count := int64(len(orders))
	return SalesAnalytics{
		Date:              date,
		Hour:              hour,
		TotalSales:        shared.RoundMoney(sales),
		OrderCount:        count,
		AverageOrderValue: shared.SafeAverage(sales, count),
	}
}

func netProfit(sales, tax, inventory, labor decimal.Decimal) decimal.Decimal {
	return sales.Sub(tax).Sub(inventory).Sub(labor)
}

// HourRange returns the [start, end) instants of hour on date in loc.
// Buckets count elapsed hours from local midnight and are clipped to the
// day, so on DST days they stay contiguous and hour 23 absorbs any extra
// hour or comes back empty.
func HourRange(date shared.Date, hour int, loc *time.Location) (time.Time, time.Time) {
	dayStart, dayEnd := date.Range(loc)
	from := minTime(dayStart.Add(time.Duration(hour)*time.Hour), dayEnd)
	if hour >= 23 {
		return from, dayEnd
	}
	return from, minTime(from.Add(time.Hour), dayEnd)
}

func minTime(a, b time.Time) time.Time {
	if a.After(b) {
		return b
	}
	return a
}

// MonthRange returns the first day of the month and the first day of the next.
func MonthRange(year int, month time.Month) (shared.Date, shared.Date) {
	first := shared.NewDate(year, month, 1)
	return first, shared.NewDate(year, month+1, 1)
}
