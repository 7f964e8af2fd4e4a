package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// RentalDays counts started 24h periods between start and end, at least one.
func RentalDays(start, end time.Time) int64 {
	d := end.Sub(start)
	days := int64(d / day)
	if d%day > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

func TotalPrice(pricePerDay decimal.Decimal, start, end time.Time) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(RentalDays(start, end)))
}
