package model

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// HasAtMostTwoDecimals reports whether d carries no more than two fraction digits.
func HasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// ValidAmount reports whether d is a positive amount with at most two fraction digits.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && HasAtMostTwoDecimals(d)
}
