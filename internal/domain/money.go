package domain

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of fractional digits kept for money values.
const CurrencyPlaces = 2

// RoundCurrency rounds a monetary value to currency precision using
// round-half-up, not banker's rounding, so 9.995 becomes 10.00.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// LineTotal returns the rounded total for one order line. Totals are always
// rounded per line before summation; summing raw products and rounding the
// final sum once would diverge from the displayed per-line amounts.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return RoundCurrency(price.Mul(decimal.NewFromInt(int64(quantity))))
}
