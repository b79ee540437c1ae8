package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	base := StockItem{ID: 1, Quantity: d("10"), ReorderLevel: d("4")}

	out, err := Apply(base, StockTransaction{Type: TransactionTypeIn, Quantity: d("2.5")})
	require.NoError(t, err)
	require.Equal(t, "12.5", out.Quantity.String())
	require.Equal(t, "10", base.Quantity.String())

	out, err = Apply(base, StockTransaction{Type: TransactionTypeOut, Quantity: d("10")})
	require.NoError(t, err)
	require.True(t, out.Quantity.IsZero())
	require.True(t, out.NeedsReorder)

	_, err = Apply(base, StockTransaction{Type: TransactionTypeOut, Quantity: d("10.01")})
	require.ErrorIs(t, err, ErrInsufficientStock)

	out, err = Apply(base, StockTransaction{Type: TransactionTypeAdjust, Quantity: d("4")})
	require.NoError(t, err)
	require.Equal(t, "4", out.Quantity.String())
	require.True(t, out.NeedsReorder)

	_, err = Apply(base, StockTransaction{Type: "XFER", Quantity: d("1")})
	require.Error(t, err)
}

func TestTransactionCost(t *testing.T) {
	require.Equal(t, "7.50", TransactionCost(StockTransaction{Quantity: d("2.5"), UnitPrice: d("3")}).StringFixed(2))
}
