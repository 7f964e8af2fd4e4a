package delivery

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/SlavaShagalov/car-rental-api/internal/pkg/app"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
)

type Delivery struct {
	useCase   UseCase
	validator *app.Validator
	logger    *slog.Logger
}

func New(useCase UseCase, validator *app.Validator, logger *slog.Logger) *Delivery {
	return &Delivery{
		useCase:   useCase,
		validator: validator,
		logger:    logger,
	}
}

func (d *Delivery) HealthCheck(ctx context.Context) error {
	return d.useCase.HealthCheck(ctx)
}

func (d *Delivery) AddHandlers(router fiber.Router, auth fiber.Handler) {
	router.Get("/cars", d.list)
	router.Get("/cars/page/:page", d.listPage)
	router.Get("/cars/:id", d.get)
	router.Post("/cars", auth, d.create)
	router.Put("/cars/:id", auth, d.update)
	router.Delete("/cars/:id", auth, d.delete)
}

func (d *Delivery) list(ctx *fiber.Ctx) error {
	cars, err := d.useCase.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(NewCarDTOs(cars))
}

func (d *Delivery) listPage(ctx *fiber.Ctx) error {
	page, err := ctx.ParamsInt("page")
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	}

	result, err := d.useCase.ListPage(ctx.UserContext(), page, ctx.QueryInt("per_page", 0))
	if err != nil {
		return err
	}

	return ctx.JSON(PageDTO{
		Data:    NewCarDTOs(result.Cars),
		Page:    result.Page,
		PerPage: result.PerPage,
		Total:   result.Total,
	})
}

func (d *Delivery) get(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrCarNotFound)
	if err != nil {
		return err
	}

	car, err := d.useCase.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(NewCarDTO(car))
}

func (d *Delivery) create(ctx *fiber.Ctx) error {
	var dto CreateCarDTO
	if err := d.validator.ParseBody(ctx, &dto); err != nil {
		return err
	}

	car, err := d.useCase.Create(ctx.UserContext(), dto.Params())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(NewCarDTO(car))
}

func (d *Delivery) update(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrCarNotFound)
	if err != nil {
		return err
	}

	var dto UpdateCarDTO
	if err = d.validator.ParseBody(ctx, &dto); err != nil {
		return err
	}

	car, err := d.useCase.Update(ctx.UserContext(), dto.Params(id))
	if err != nil {
		return err
	}

	return ctx.JSON(NewCarDTO(car))
}

func (d *Delivery) delete(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrCarNotFound)
	if err != nil {
		return err
	}

	if err = d.useCase.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"message": "Car deleted successfully"})
}
