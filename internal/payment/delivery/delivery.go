package delivery

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
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
	router.Get("/payments", d.list)
	router.Get("/payments/:id", d.get)
	router.Post("/payments", auth, d.create)
	router.Put("/payments/:id", auth, d.update)
	router.Delete("/payments/:id", auth, d.delete)

	router.Get("/rentals/:rentalId/payments", d.listByRental)
}

func (d *Delivery) create(ctx *fiber.Ctx) error {
	var dto CreatePaymentDTO
	if err := d.validator.ParseBody(ctx, &dto); err != nil {
		return err
	}

	payment, err := d.useCase.Create(ctx.UserContext(), dto.Params())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(NewPaymentDTO(payment))
}

func (d *Delivery) get(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrPaymentNotFound)
	if err != nil {
		return err
	}

	payment, err := d.useCase.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(NewPaymentDTO(payment))
}

func (d *Delivery) update(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrPaymentNotFound)
	if err != nil {
		return err
	}

	var dto UpdatePaymentDTO
	if err = d.validator.ParseBody(ctx, &dto); err != nil {
		return err
	}

	payment, err := d.useCase.UpdateStatus(ctx.UserContext(), id, models.PaymentStatus(dto.Status))
	if err != nil {
		return err
	}

	return ctx.JSON(NewPaymentDTO(payment))
}

func (d *Delivery) delete(ctx *fiber.Ctx) error {
	id, err := app.PathID(ctx, "id", pkgErrors.ErrPaymentNotFound)
	if err != nil {
		return err
	}

	if err = d.useCase.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"message": "Payment deleted successfully"})
}

func (d *Delivery) list(ctx *fiber.Ctx) error {
	payments, err := d.useCase.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(NewPaymentDTOs(payments))
}

func (d *Delivery) listByRental(ctx *fiber.Ctx) error {
	rentalID, err := app.PathID(ctx, "rentalId", pkgErrors.ErrRentalNotFound)
	if err != nil {
		return err
	}

	payments, err := d.useCase.ListByRental(ctx.UserContext(), rentalID)
	if err != nil {
		return err
	}

	return ctx.JSON(NewPaymentDTOs(payments))
}
