package delivery

import (
	"context"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
)

type UseCase interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, params usecase.CreateParams) (usecase.Booking, error)
	Checkout(ctx context.Context, rentalID int) (usecase.Booking, error)
	Get(ctx context.Context, id int) (models.Rental, error)
	Update(ctx context.Context, params usecase.UpdateParams) (models.Rental, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]models.Rental, error)
	ListByUser(ctx context.Context, userID int) ([]models.Rental, error)
	ListByCar(ctx context.Context, carID int) ([]models.Rental, error)
}
