package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Apply returns item with tx applied. IN adds, OUT subtracts and fails when
// more is requested than is on hand, ADJ sets the quantity absolutely.
// The input item is not modified.
func Apply(item StockItem, tx StockTransaction) (StockItem, error) {
	switch tx.Type {
	case TransactionTypeIn:
		item.Quantity = item.Quantity.Add(tx.Quantity)
	case TransactionTypeOut:
		if tx.Quantity.GreaterThan(item.Quantity) {
			return item, &InsufficientStockError{ItemID: item.ID, Available: item.Quantity, Requested: tx.Quantity}
		}
		item.Quantity = item.Quantity.Sub(tx.Quantity)
	case TransactionTypeAdjust:
		item.Quantity = tx.Quantity
	default:
		return item, errUnknownType(tx.Type)
	}
	item.NeedsReorder = NeedsReorder(item)
	return item, nil
}

// NeedsReorder reports whether stock is at or below the reorder level.
func NeedsReorder(item StockItem) bool {
	return item.Quantity.LessThanOrEqual(item.ReorderLevel)
}

// TransactionCost is quantity times unit price.
func TransactionCost(tx StockTransaction) decimal.Decimal {
	return tx.Quantity.Mul(tx.UnitPrice)
}

func errUnknownType(t TransactionType) error {
	return shared.NewValidationError("transaction_type", "unknown transaction type "+string(t))
}
