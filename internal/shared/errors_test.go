package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("create schedule: %w", NewValidationError("end_time", "must be after start time"))
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "end_time: must be after start time", UserSafeMessage(err))

	nf := fmt.Errorf("load: %w", NewNotFoundError("order", int64(7)))
	require.ErrorIs(t, nf, ErrNotFound)
	require.False(t, errors.Is(nf, ErrValidation))
	require.Equal(t, "order 7 not found", UserSafeMessage(nf))

	require.Equal(t, "internal error", UserSafeMessage(errors.New("pq: boom")))
}

func TestParseIdempotencyKey(t *testing.T) {
	key, err := ParseIdempotencyKey("")
	require.NoError(t, err)
	require.Empty(t, key)

	_, err = ParseIdempotencyKey("not-a-uuid")
	require.ErrorIs(t, err, ErrValidation)

	key, err = ParseIdempotencyKey("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	require.NoError(t, err)
	require.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", key)
}

func TestPageBounds(t *testing.T) {
	require.Equal(t, 20, Page{}.Limit())
	require.Equal(t, 0, Page{}.Offset())
	require.Equal(t, 40, Page{Page: 3, PerPage: 20}.Offset())
	require.Equal(t, 200, Page{PerPage: 5000}.Limit())

	p := NewPagination(2, 10, 25)
	require.Equal(t, 3, p.TotalPages)
}

func TestSafeAverage(t *testing.T) {
	require.True(t, SafeAverage(decimal.NewFromInt(100), 0).IsZero())
	require.Equal(t, "33.33", SafeAverage(decimal.NewFromInt(100), 3).StringFixed(2))
}

func TestCheckScale(t *testing.T) {
	for _, ok := range []string{"4", "4.5", "4.50", "0.01", "4.5000"} {
		require.NoError(t, CheckScale("quantity", decimal.RequireFromString(ok)), ok)
	}
	err := CheckScale("quantity", decimal.RequireFromString("4.996"))
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "quantity")
}

func TestMapConstraintError(t *testing.T) {
	dup := MapConstraintError(&pgconn.PgError{Code: "23505"}, "table")
	require.ErrorIs(t, dup, ErrConflict)
	require.Equal(t, "conflict: table already exists", dup.Error())

	fk := MapConstraintError(&pgconn.PgError{Code: "23503"}, "menu item")
	require.ErrorIs(t, fk, ErrValidation)

	other := errors.New("boom")
	require.Same(t, other, MapConstraintError(other, "x"))
}
