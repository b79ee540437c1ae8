package reports

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteDailyCSV serialises daily reports.
func WriteDailyCSV(w io.Writer, reports []DailyReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Total Sales", "Orders", "Average Order", "Tax", "Inventory Cost", "Labor Cost", "Net Profit"}); err != nil {
		return err
	}
	for _, r := range reports {
		if err := writer.Write([]string{
			r.Date.String(),
			r.TotalSales.StringFixed(2),
			strconv.FormatInt(r.TotalOrders, 10),
			r.AverageOrderValue.StringFixed(2),
			r.TotalTax.StringFixed(2),
			r.InventoryCost.StringFixed(2),
			r.LaborCost.StringFixed(2),
			r.NetProfit.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMonthlyCSV serialises monthly reports.
func WriteMonthlyCSV(w io.Writer, reports []MonthlyReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Year", "Month", "Total Sales", "Orders", "Average Daily Sales", "Tax", "Inventory Cost", "Labor Cost", "Net Profit"}); err != nil {
		return err
	}
	for _, r := range reports {
		if err := writer.Write([]string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			r.TotalSales.StringFixed(2),
			strconv.FormatInt(r.TotalOrders, 10),
			r.AverageDailySales.StringFixed(2),
			r.TotalTax.StringFixed(2),
			r.InventoryCost.StringFixed(2),
			r.LaborCost.StringFixed(2),
			r.NetProfit.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteHourlyCSV serialises one day's hourly buckets.
func WriteHourlyCSV(w io.Writer, buckets []SalesAnalytics) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Hour", "Total Sales", "Orders", "Average Order"}); err != nil {
		return err
	}
	for _, b := range buckets {
		if err := writer.Write([]string{
			b.Date.String(),
			strconv.Itoa(b.Hour),
			b.TotalSales.StringFixed(2),
			strconv.FormatInt(b.OrderCount, 10),
			b.AverageOrderValue.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
