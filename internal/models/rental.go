package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalPending   RentalStatus = "pending"
	RentalActive    RentalStatus = "active"
	RentalCompleted RentalStatus = "completed"
	RentalCanceled  RentalStatus = "canceled"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalPending, RentalActive, RentalCompleted, RentalCanceled:
		return true
	}
	return false
}

type Rental struct {
	ID         int             `db:"id"`
	UserID     int             `db:"user_id"`
	CarID      int             `db:"car_id"`
	StartDate  time.Time       `db:"start_date"`
	EndDate    time.Time       `db:"end_date"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     RentalStatus    `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}
