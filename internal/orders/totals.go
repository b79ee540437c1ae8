package orders

import (
	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Totals are the cached aggregates stored on an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Aggregator derives order totals from line items at a fixed tax rate.
type Aggregator struct {
	rate decimal.Decimal
}

// NewAggregator returns an Aggregator using rate (e.g. 0.10).
func NewAggregator(rate decimal.Decimal) Aggregator {
	return Aggregator{rate: rate}
}

// Rate returns the configured tax rate.
func (a Aggregator) Rate() decimal.Decimal {
	return a.rate
}

// LineItemSubtotal is quantity times unit price.
func LineItemSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Recompute sums line subtotals and applies tax rounded to currency scale.
func (a Aggregator) Recompute(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	tax := shared.RoundMoney(subtotal.Mul(a.rate))
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}
