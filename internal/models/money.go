package models

import "github.com/shopspring/decimal"

// MaxMoney is the largest value the NUMERIC(10, 2) money columns hold.
var MaxMoney = decimal.RequireFromString("99999999.99")

// FitsMoney reports whether d has at most two decimal places and fits the money columns.
func FitsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2)) && d.Abs().LessThanOrEqual(MaxMoney)
}
