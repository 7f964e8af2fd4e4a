package delivery

import (
	"context"

	"github.com/SlavaShagalov/car-rental-api/internal/checkout/usecase"
)

type UseCase interface {
	Success(ctx context.Context, sessionID string) (usecase.Result, error)
	Cancel(ctx context.Context, sessionID string) (usecase.Result, error)
	Webhook(ctx context.Context, payload []byte, signature string) (usecase.Result, error)
}
