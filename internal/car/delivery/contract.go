package delivery

import (
	"context"

	"github.com/SlavaShagalov/car-rental-api/internal/car/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

type UseCase interface {
	HealthCheck(ctx context.Context) error
	List(ctx context.Context) ([]models.Car, error)
	ListPage(ctx context.Context, page, perPage int) (usecase.Page, error)
	Get(ctx context.Context, id int) (models.Car, error)
	Create(ctx context.Context, params usecase.CreateParams) (models.Car, error)
	Update(ctx context.Context, params usecase.UpdateParams) (models.Car, error)
	Delete(ctx context.Context, id int) error
}
