package delivery

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/internal/checkout/gateway"
	"github.com/SlavaShagalov/car-rental-api/internal/checkout/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

const signatureHeader = "Stripe-Signature"

type Delivery struct {
	useCase UseCase
	logger  *slog.Logger
}

func New(useCase UseCase, logger *slog.Logger) *Delivery {
	return &Delivery{
		useCase: useCase,
		logger:  logger,
	}
}

// AddHandlers registers the gateway callbacks. None of them take a bearer identity.
func (d *Delivery) AddHandlers(router fiber.Router, _ fiber.Handler) {
	router.Get("/checkout/success", d.success)
	router.Get("/checkout/cancel", d.cancel)
	router.Post("/checkout/webhook", d.webhook)
}

type ResultDTO struct {
	Message   string `json:"message"`
	Status    string `json:"status,omitempty"`
	RentalID  int    `json:"rental_id,omitempty"`
	PaymentID int    `json:"payment_id,omitempty"`
}

func newResultDTO(result usecase.Result) ResultDTO {
	dto := ResultDTO{Status: string(result.Status)}
	if result.Applied {
		dto.RentalID = result.Payment.RentalID
		dto.PaymentID = result.Payment.ID
	}

	switch result.Status {
	case models.PaymentCompleted:
		dto.Message = "Payment completed"
	case models.PaymentFailed:
		dto.Message = "Payment failed"
	case models.PaymentCanceled:
		dto.Message = "Payment canceled"
	case models.PaymentPending:
		dto.Message = "Payment is being processed"
	default:
		dto.Message = "Checkout canceled"
	}
	return dto
}

func (d *Delivery) success(ctx *fiber.Ctx) error {
	sessionID := ctx.Query("session_id")
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing session_id")
	}

	result, err := d.useCase.Success(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(newResultDTO(result))
}

func (d *Delivery) cancel(ctx *fiber.Ctx) error {
	result, err := d.useCase.Cancel(ctx.UserContext(), ctx.Query("session_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(newResultDTO(result))
}

func (d *Delivery) webhook(ctx *fiber.Ctx) error {
	_, err := d.useCase.Webhook(ctx.UserContext(), ctx.Body(), ctx.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) || errors.Is(err, gateway.ErrStaleSignature) ||
			errors.Is(err, gateway.ErrDecode) {
			d.logger.Warn("webhook rejected", slog.String("error", err.Error()))
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.JSON(fiber.Map{"received": true})
}
