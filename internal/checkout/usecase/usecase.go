package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/internal/checkout/gateway"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	paymentUsecase "github.com/SlavaShagalov/car-rental-api/internal/payment/usecase"
	rentalUsecase "github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
)

type UseCase struct {
	gateway  Gateway
	payments PaymentRepository
	tracker  PaymentTracker
	journal  Journal
	logger   *slog.Logger
}

// New builds the checkout adapter. journal may be nil.
func New(gateway Gateway, payments PaymentRepository, tracker PaymentTracker, journal Journal, logger *slog.Logger) *UseCase {
	return &UseCase{
		gateway:  gateway,
		payments: payments,
		tracker:  tracker,
		journal:  journal,
		logger:   logger,
	}
}

// OpenSession creates a hosted checkout session for a pending payment and
// returns the URL the customer is redirected to. A session the payment was
// bound to before is expired first so only one session can collect money.
func (u *UseCase) OpenSession(ctx context.Context, params rentalUsecase.CheckoutParams) (string, error) {
	if params.PreviousSessionID != "" {
		previous, err := u.closeSession(ctx, params.PreviousSessionID)
		if err != nil {
			return "", err
		}
		if previous.Paid() {
			if _, err = u.HandleCallback(ctx, previous.ID, previous.RentalID, models.PaymentCompleted); err != nil {
				return "", err
			}
			return "", pkgErrors.ErrCheckoutAlreadyPaid
		}
	}

	session, err := u.gateway.CreateSession(ctx, gateway.SessionParams{
		RentalID:    params.RentalID,
		Amount:      params.Amount,
		Description: params.Description,
	})
	if err != nil {
		return "", &pkgErrors.GatewayError{Err: err}
	}

	err = u.payments.AttachSession(ctx, params.PaymentID, params.PreviousSessionID, session.ID)
	if errors.Is(err, pkgErrors.ErrPaymentNotFound) {
		u.logger.Warn("checkout session lost the race, expiring it",
			slog.Int("payment_id", params.PaymentID),
			slog.String("session_id", session.ID),
		)
		if _, expErr := u.gateway.ExpireSession(ctx, session.ID); expErr != nil {
			u.logger.Error("checkout session not expired",
				slog.String("session_id", session.ID),
				slog.String("error", expErr.Error()),
			)
		}
		return "", pkgErrors.ErrCheckoutInProgress
	}
	if err != nil {
		return "", err
	}

	u.logger.Info("checkout session opened",
		slog.Int("rental_id", params.RentalID),
		slog.Int("payment_id", params.PaymentID),
		slog.String("session_id", session.ID),
	)
	u.publish(ctx, journal.KindCheckoutOpened, params.PaymentID, map[string]any{
		"rental_id":  params.RentalID,
		"payment_id": params.PaymentID,
		"session_id": session.ID,
		"amount":     params.Amount.StringFixed(2),
	})

	return session.URL, nil
}

// HandleCallback applies a terminal outcome for a session. rentalID is the
// correlation metadata of the session, zero when unknown.
func (u *UseCase) HandleCallback(ctx context.Context, sessionID string, rentalID int, outcome models.PaymentStatus) (Result, error) {
	payment, err := u.tracker.ApplyCheckoutOutcome(ctx, paymentUsecase.Outcome{
		SessionID: sessionID,
		RentalID:  rentalID,
		Status:    outcome,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Applied: true, Status: payment.Status, Payment: payment}, nil
}

// Success resolves the session behind a success redirect. Unpaid sessions change nothing.
func (u *UseCase) Success(ctx context.Context, sessionID string) (Result, error) {
	session, err := u.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return Result{}, &pkgErrors.GatewayError{Err: err}
	}

	if !session.Paid() {
		u.logger.Info("checkout session not paid yet",
			slog.String("session_id", session.ID),
			slog.String("payment_status", session.PaymentStatus),
		)
		return Result{Status: models.PaymentPending}, nil
	}

	return u.HandleCallback(ctx, session.ID, session.RentalID, models.PaymentCompleted)
}

// Cancel expires the session before the payment is canceled. A session that
// turns out to be paid is recorded as completed instead.
func (u *UseCase) Cancel(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return Result{}, nil
	}

	session, err := u.closeSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	outcome := models.PaymentCanceled
	if session.Paid() {
		outcome = models.PaymentCompleted
	}

	result, err := u.HandleCallback(ctx, session.ID, session.RentalID, outcome)
	if errors.Is(err, pkgErrors.ErrPaymentNotFound) {
		u.logger.Warn("cancel for unknown checkout session", slog.String("session_id", session.ID))
		return Result{}, nil
	}

	return result, err
}

// closeSession expires an open session. Sessions Stripe refuses to expire are
// already complete or expired, their current state is read back instead.
func (u *UseCase) closeSession(ctx context.Context, sessionID string) (gateway.Session, error) {
	session, err := u.gateway.ExpireSession(ctx, sessionID)
	if errors.Is(err, gateway.ErrRejected) {
		session, err = u.gateway.GetSession(ctx, sessionID)
	}
	if err != nil {
		return gateway.Session{}, &pkgErrors.GatewayError{Err: err}
	}

	return session, nil
}

// Webhook verifies and applies a gateway event. Events that carry no outcome are acknowledged.
func (u *UseCase) Webhook(ctx context.Context, payload []byte, signature string) (Result, error) {
	event, err := u.gateway.ParseEvent(payload, signature)
	if err != nil {
		return Result{}, err
	}

	outcome, ok := webhookOutcome(event)
	if !ok {
		u.logger.Debug("webhook event ignored", slog.String("event_id", event.ID), slog.String("type", event.Type))
		return Result{}, nil
	}

	result, err := u.HandleCallback(ctx, event.Session.ID, event.Session.RentalID, outcome)
	if errors.Is(err, pkgErrors.ErrPaymentNotFound) {
		u.logger.Warn("webhook for unknown checkout session",
			slog.String("event_id", event.ID),
			slog.String("session_id", event.Session.ID),
		)
		return Result{}, nil
	}

	return result, err
}

func webhookOutcome(event gateway.Event) (models.PaymentStatus, bool) {
	switch event.Type {
	case gateway.EventSessionCompleted:
		if event.Session.Paid() {
			return models.PaymentCompleted, true
		}
	case gateway.EventSessionAsyncPaymentSucceed:
		return models.PaymentCompleted, true
	case gateway.EventSessionAsyncPaymentFailed:
		return models.PaymentFailed, true
	case gateway.EventSessionExpired:
		return models.PaymentCanceled, true
	}
	return "", false
}

func (u *UseCase) publish(ctx context.Context, kind string, subjectID int, payload any) {
	if u.journal == nil {
		return
	}
	if err := u.journal.Publish(ctx, kind, subjectID, payload); err != nil {
		u.logger.Warn("journal publish failed", slog.String("kind", kind), slog.String("error", err.Error()))
	}
}
