package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

type CreateParams struct {
	Make     string
	Model    string
	Matricul string
	Year     int
	Price    decimal.Decimal
	Status   models.CarStatus
	Image    *string
}

// UpdateParams carries only the fields present in the request.
type UpdateParams struct {
	ID       int
	Make     *string
	Model    *string
	Matricul *string
	Year     *int
	Price    *decimal.Decimal
	Status   *models.CarStatus
	Image    *string
}

type Page struct {
	Cars    []models.Car
	Page    int
	PerPage int
	Total   int
}

type Repository interface {
	HealthCheck(ctx context.Context) error
	List(ctx context.Context) ([]models.Car, error)
	ListPage(ctx context.Context, limit, offset int) ([]models.Car, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int) (models.Car, error)
	Create(ctx context.Context, params CreateParams) (models.Car, error)
	Update(ctx context.Context, params UpdateParams) (models.Car, error)
	Delete(ctx context.Context, id int) error
}
