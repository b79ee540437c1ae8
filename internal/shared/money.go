package shared

import "github.com/shopspring/decimal"

// CurrencyPlaces is the scale of every stored amount.
const CurrencyPlaces = 2

// RoundMoney rounds half away from zero to currency scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// SafeAverage divides total by count, returning zero for an empty set.
func SafeAverage(total decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return RoundMoney(total.Div(decimal.NewFromInt(count)))
}

// CheckScale rejects values with more fractional digits than storage keeps.
func CheckScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(CurrencyPlaces)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	return nil
}
