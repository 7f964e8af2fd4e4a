package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentStripe     PaymentMethod = "stripe"
	PaymentCash       PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentStripe, PaymentCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCanceled  PaymentStatus = "canceled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCanceled:
		return true
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCanceled
}

// Counted reports whether the payment counts towards the rental total.
func (s PaymentStatus) Counted() bool {
	return s == PaymentPending || s == PaymentCompleted
}

type Payment struct {
	ID            int             `db:"id"`
	RentalID      int             `db:"rental_id"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod PaymentMethod   `db:"payment_method"`
	Status        PaymentStatus   `db:"status"`
	SessionID     *string         `db:"session_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
