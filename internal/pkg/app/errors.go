package app

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
)

// ErrorHandler turns errors returned by handlers into JSON responses.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var (
			validationErr *pkgErrors.ValidationError
			notFoundErr   pkgErrors.NotFoundError
			conflictErr   pkgErrors.ConflictError
			gatewayErr    *pkgErrors.GatewayError
			fiberErr      *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(validationErr.Map())
		case errors.As(err, &notFoundErr):
			return ctx.Status(fiber.StatusNotFound).JSON(notFoundErr.Map())
		case errors.As(err, &conflictErr):
			return ctx.Status(fiber.StatusConflict).JSON(conflictErr.Map())
		case errors.As(err, &gatewayErr):
			logger.Error("checkout gateway failure",
				slog.String("path", ctx.Path()),
				slog.String("error", err.Error()),
			)
			return ctx.Status(fiber.StatusBadGateway).JSON(gatewayErr.Map())
		case errors.Is(err, pkgErrors.ErrUnauthorized):
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthenticated."})
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		logger.Error("unhandled error",
			slog.String("method", ctx.Method()),
			slog.String("path", ctx.Path()),
			slog.String("error", err.Error()),
		)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
