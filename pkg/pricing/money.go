package pricing

import "github.com/shopspring/decimal"

// DecimalFromCents converts an integer cents amount to a dollar decimal.
func DecimalFromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Shift(-2)
}

// CentsFromDecimal converts a dollar decimal to integer cents, rounding half up.
func CentsFromDecimal(amount decimal.Decimal) int {
	return int(amount.Shift(2).Round(0).IntPart())
}
