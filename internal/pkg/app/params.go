package app

import (
	"github.com/gofiber/fiber/v2"
)

// PathID reads a positive integer route parameter. Anything else resolves to notFound.
func PathID(ctx *fiber.Ctx, name string, notFound error) (int, error) {
	id, err := ctx.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
