package usecase

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
)

const (
	DefaultPerPage = 10

	msgMoneyFormat = "The price must have at most 2 decimal places and not exceed 99999999.99."
)

type UseCase struct {
	repo   Repository
	logger *slog.Logger
}

func New(repo Repository, logger *slog.Logger) *UseCase {
	return &UseCase{
		repo:   repo,
		logger: logger,
	}
}

func (u *UseCase) HealthCheck(ctx context.Context) error {
	return u.repo.HealthCheck(ctx)
}

func (u *UseCase) List(ctx context.Context) ([]models.Car, error) {
	return u.repo.List(ctx)
}

// ListPage returns the 1-based page of cars ordered by id.
func (u *UseCase) ListPage(ctx context.Context, page, perPage int) (Page, error) {
	verr := pkgErrors.NewValidationError()
	if page < 1 {
		verr.Add("page", "The page must be at least 1.")
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if perPage < 1 || perPage > 100 {
		verr.Add("per_page", "The per page must be between 1 and 100.")
	}
	if err := verr.OrNil(); err != nil {
		return Page{}, err
	}

	total, err := u.repo.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	cars, err := u.repo.ListPage(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Cars:    cars,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

func (u *UseCase) Get(ctx context.Context, id int) (models.Car, error) {
	return u.repo.Get(ctx, id)
}

func (u *UseCase) Create(ctx context.Context, params CreateParams) (models.Car, error) {
	if err := checkPrice(params.Price); err != nil {
		return models.Car{}, err
	}
	if params.Status == "" {
		params.Status = models.CarAvailable
	}

	car, err := u.repo.Create(ctx, params)
	if err != nil {
		return models.Car{}, err
	}

	u.logger.Info("car created", slog.Int("car_id", car.ID))
	return car, nil
}

func (u *UseCase) Update(ctx context.Context, params UpdateParams) (models.Car, error) {
	if params.Price != nil {
		if err := checkPrice(*params.Price); err != nil {
			return models.Car{}, err
		}
	}

	return u.repo.Update(ctx, params)
}

func (u *UseCase) Delete(ctx context.Context, id int) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}

	u.logger.Info("car deleted", slog.Int("car_id", id))
	return nil
}

func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgErrors.FieldError("price", "The price must be greater than 0.")
	}
	if !models.FitsMoney(price) {
		return pkgErrors.FieldError("price", msgMoneyFormat)
	}
	return nil
}
