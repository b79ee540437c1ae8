package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockChangedEvent describes a committed stock movement.
type StockChangedEvent struct {
	ItemID       int64
	Type         TransactionType
	Quantity     decimal.Decimal
	Balance      decimal.Decimal
	NeedsReorder bool
	At           time.Time
}
