package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

type CreateParams struct {
	RentalID      int
	Amount        decimal.Decimal
	PaymentMethod models.PaymentMethod
	Status        models.PaymentStatus
}

// Outcome is a terminal result reported by the checkout gateway.
// RentalID is the correlation metadata, used only to find a payment no session was attached to yet.
type Outcome struct {
	SessionID string
	RentalID  int
	Status    models.PaymentStatus
}

type Repository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, payment models.Payment) (models.Payment, error)
	Get(ctx context.Context, id int) (models.Payment, error)
	GetForUpdate(ctx context.Context, id int) (models.Payment, error)
	GetBySession(ctx context.Context, sessionID string) (models.Payment, error)
	FindUnattached(ctx context.Context, rentalID int) (models.Payment, error)
	SumCounted(ctx context.Context, rentalID int) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) (models.Payment, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]models.Payment, error)
	ListByRental(ctx context.Context, rentalID int) ([]models.Payment, error)
}

type RentalRepository interface {
	Get(ctx context.Context, id int) (models.Rental, error)
	GetForUpdate(ctx context.Context, id int) (models.Rental, error)
	UpdateStatus(ctx context.Context, id int, status models.RentalStatus) (models.Rental, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Journal interface {
	Publish(ctx context.Context, kind string, subjectID int, payload any) error
}
