package usecase

import (
	"context"

	"github.com/SlavaShagalov/car-rental-api/internal/checkout/gateway"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
	paymentUsecase "github.com/SlavaShagalov/car-rental-api/internal/payment/usecase"
)

type Gateway interface {
	CreateSession(ctx context.Context, params gateway.SessionParams) (gateway.Session, error)
	GetSession(ctx context.Context, sessionID string) (gateway.Session, error)
	ExpireSession(ctx context.Context, sessionID string) (gateway.Session, error)
	ParseEvent(payload []byte, sigHeader string) (gateway.Event, error)
}

type PaymentRepository interface {
	AttachSession(ctx context.Context, id int, previous, sessionID string) error
}

type PaymentTracker interface {
	ApplyCheckoutOutcome(ctx context.Context, outcome paymentUsecase.Outcome) (models.Payment, error)
}

type Journal interface {
	Publish(ctx context.Context, kind string, subjectID int, payload any) error
}

// Result describes what a callback did. Payment is zero when Applied is false.
type Result struct {
	Applied bool
	Status  models.PaymentStatus
	Payment models.Payment
}
