package inventory

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteItemsCSV serialises stock items with their reorder state.
func WriteItemsCSV(w io.Writer, items []StockItem) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"ID", "Name", "Unit", "Quantity", "Reorder Level", "Cost Per Unit", "Needs Reorder"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			string(item.Unit),
			item.Quantity.StringFixed(2),
			item.ReorderLevel.StringFixed(2),
			item.CostPerUnit.StringFixed(2),
			strconv.FormatBool(NeedsReorder(item)),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTransactionsCSV emits ledger entries as CSV.
func WriteTransactionsCSV(w io.Writer, txs []StockTransaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"ID", "Item", "Type", "Quantity", "Unit Price", "Cost", "Date", "Notes"}); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := writer.Write([]string{
			strconv.FormatInt(tx.ID, 10),
			strconv.FormatInt(tx.ItemID, 10),
			string(tx.Type),
			tx.Quantity.StringFixed(2),
			tx.UnitPrice.StringFixed(2),
			TransactionCost(tx).StringFixed(2),
			tx.Date.Format("2006-01-02 15:04"),
			tx.Notes,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
