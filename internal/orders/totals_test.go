package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(qty int, price string) LineItem {
	p := d(price)
	return LineItem{Quantity: qty, UnitPrice: p, Subtotal: LineItemSubtotal(qty, p)}
}

func TestAggregatorRecompute(t *testing.T) {
	agg := NewAggregator(d("0.10"))

	totals := agg.Recompute([]LineItem{line(2, "10.00"), line(1, "5.00")})
	require.True(t, totals.Subtotal.Equal(d("25.00")), totals.Subtotal.String())
	require.True(t, totals.Tax.Equal(d("2.50")), totals.Tax.String())
	require.True(t, totals.Total.Equal(d("27.50")), totals.Total.String())
}

func TestAggregatorEmptyOrder(t *testing.T) {
	totals := NewAggregator(d("0.10")).Recompute(nil)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.Tax.IsZero())
	require.True(t, totals.Total.IsZero())
}

func TestAggregatorRoundsTaxToCents(t *testing.T) {
	totals := NewAggregator(d("0.10")).Recompute([]LineItem{line(1, "3.35")})
	require.Equal(t, "0.34", totals.Tax.StringFixed(2))
	require.Equal(t, "3.69", totals.Total.StringFixed(2))

	totals = NewAggregator(d("0.0825")).Recompute([]LineItem{line(3, "7.99")})
	require.Equal(t, "23.97", totals.Subtotal.StringFixed(2))
	require.Equal(t, "1.98", totals.Tax.StringFixed(2))
	require.Equal(t, "25.95", totals.Total.StringFixed(2))
}

func TestLineItemSubtotal(t *testing.T) {
	require.True(t, LineItemSubtotal(3, d("4.25")).Equal(d("12.75")))
}
