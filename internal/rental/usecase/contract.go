package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

type CreateParams struct {
	UserID    int
	CarID     int
	StartDate time.Time
	EndDate   time.Time
}

// UpdateParams carries only the fields present in the request.
type UpdateParams struct {
	ID         int
	UserID     *int
	CarID      *int
	StartDate  *time.Time
	EndDate    *time.Time
	TotalPrice *decimal.Decimal
	Status     *models.RentalStatus
}

// CheckoutParams describes the session to open. PreviousSessionID is the session
// the payment is currently bound to, empty for a fresh payment.
type CheckoutParams struct {
	RentalID          int
	PaymentID         int
	PreviousSessionID string
	Amount            decimal.Decimal
	Description       string
}

// Booking is the outcome of a create or checkout request.
// CheckoutURL is empty when the gateway failed.
type Booking struct {
	Rental      models.Rental
	Payment     models.Payment
	CheckoutURL string
}

type Repository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, rental models.Rental) (models.Rental, error)
	Get(ctx context.Context, id int) (models.Rental, error)
	GetForUpdate(ctx context.Context, id int) (models.Rental, error)
	Update(ctx context.Context, rental models.Rental) (models.Rental, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]models.Rental, error)
	ListByUser(ctx context.Context, userID int) ([]models.Rental, error)
	ListByCar(ctx context.Context, carID int) ([]models.Rental, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment models.Payment) (models.Payment, error)
	FindPendingForUpdate(ctx context.Context, rentalID int) (models.Payment, error)
	DeleteByRental(ctx context.Context, rentalID int) (int64, error)
}

type CarRepository interface {
	Get(ctx context.Context, id int) (models.Car, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int) (models.User, error)
}

type Checkout interface {
	OpenSession(ctx context.Context, params CheckoutParams) (string, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Journal interface {
	Publish(ctx context.Context, kind string, subjectID int, payload any) error
}
