package app

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func healthHandler(checkers []HealthChecker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		for _, checker := range checkers {
			if err := checker.HealthCheck(ctx.UserContext()); err != nil {
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"message": err.Error(),
				})
			}
		}

		return ctx.JSON(fiber.Map{"status": "ok"})
	}
}
