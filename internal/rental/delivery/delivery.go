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
	router.Get("/rentals", d.list)
	router.Get("/rentals/:id", d.get)
	router.Post("/rentals", auth, d.create)
	router.Post("/rentals/:id/checkout", auth, d.checkout)
	router.Put("/rentals/:id", auth, d.update)
	router.Delete("/rentals/:id", auth, d.delete)

	router.Get("/users/:userId/rentals", d.listByUser)
	router.Get("/cars/:carId/rentals", d.listByCar)
}

func (d *Delivery) create(ctx *fiber.Ctx) error {
	var dto CreateRentalDTO
	if err := ctx.BodyParser(&dto); err != nil {
		return app.ErrMalformedBody
	}
	if dto.UserID == 0 {
		dto.UserID, _ = app.UserID(ctx)
	}
	if err := d.validator.Struct(dto); err != nil {
		return err
	}

	booking, err := d.useCase.Create(ctx.UserContext(), dto.Params())
	if err != nil {
		return err
	}

	return ctx.JSON(CheckoutDTO{CheckoutURL: booking.CheckoutURL})
}

func (d *Delivery) checkout(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrRentalNotFound)
	if err != nil {
		return err
	}

	booking, err := d.useCase.Checkout(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(CheckoutDTO{CheckoutURL: booking.CheckoutURL})
}

func (d *Delivery) get(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrRentalNotFound)
	if err != nil {
		return err
	}

	rental, err := d.useCase.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(NewRentalDTO(rental))
}

func (d *Delivery) update(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrRentalNotFound)
	if err != nil {
		return err
	}

	var dto UpdateRentalDTO
	if err = d.validator.ParseBody(ctx, &dto); err != nil {
		return err
	}

	rental, err := d.useCase.Update(ctx.UserContext(), dto.Params(id))
	if err != nil {
		return err
	}

	return ctx.JSON(NewRentalDTO(rental))
}

func (d *Delivery) delete(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrRentalNotFound)
	if err != nil {
		return err
	}

	if err = d.useCase.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"message": "Rental deleted successfully"})
}

func (d *Delivery) list(ctx *fiber.Ctx) error {
	rentals, err := d.useCase.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(NewRentalDTOs(rentals))
}

func (d *Delivery) listByUser(ctx *fiber.Ctx) error {
	userID, err := app.PathID(ctx, "userId", pkgErrors.ErrUserNotFound)
	if err != nil {
		return err
	}

	rentals, err := d.useCase.ListByUser(ctx.UserContext(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(NewRentalDTOs(rentals))
}

func (d *Delivery) listByCar(ctx *fiber.Ctx) error {
	carID, err := app.PathID(ctx, "carId", pkgErrors.ErrCarNotFound)
	if err != nil {
		return err
	}

	rentals, err := d.useCase.ListByCar(ctx.UserContext(), carID)
	if err != nil {
		return err
	}

	return ctx.JSON(NewRentalDTOs(rentals))
}
