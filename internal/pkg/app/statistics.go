package app

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
)

type RequestPusher interface {
	PushRequest(ctx context.Context, req journal.Request) error
}

var skipStatistics = map[string]struct{}{
	"/health":            {},
	"/checkout/webhook": {},
}

// NewStatisticsMW publishes every request to the statistics stream.
// The Authorization header is never forwarded.
func NewStatisticsMW(stat RequestPusher, prefix string, logger *slog.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		path := strings.TrimPrefix(ctx.Path(), prefix)
		if _, skip := skipStatistics[path]; skip {
			return ctx.Next()
		}

		headers := ctx.GetReqHeaders()
		keys := make([]string, 0, len(headers))
		for key := range headers {
			if strings.EqualFold(key, fiber.HeaderAuthorization) {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var headersStr strings.Builder
		for _, key := range keys {
			headersStr.WriteString(key + ": " + strings.Join(headers[key], ", ") + "\r\n")
		}

		req := journal.Request{
			Method:  ctx.Method(),
			URL:     ctx.OriginalURL(),
			Body:    string(ctx.Body()),
			Headers: headersStr.String(),
		}

		err := stat.PushRequest(ctx.UserContext(), req)
		if err != nil {
			logger.Error("push request statistics", slog.String("error", err.Error()))
		}

		return ctx.Next()
	}
}
