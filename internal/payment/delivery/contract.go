package delivery

import (
	"context"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	"github.com/SlavaShagalov/car-rental-api/internal/payment/usecase"
)

type UseCase interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, params usecase.CreateParams) (models.Payment, error)
	Get(ctx context.Context, id int) (models.Payment, error)
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) (models.Payment, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]models.Payment, error)
	ListByRental(ctx context.Context, rentalID int) ([]models.Payment, error)
}
