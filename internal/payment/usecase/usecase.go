package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
)

type event struct {
	kind      string
	subjectID int
	payload   map[string]any
}

type UseCase struct {
	repo    Repository
	rentals RentalRepository
	tx      Transactor
	journal Journal
	logger  *slog.Logger
}

// New builds the payment tracker. journal may be nil.
func New(repo Repository, rentals RentalRepository, tx Transactor, journal Journal, logger *slog.Logger) *UseCase {
	return &UseCase{
		repo:    repo,
		rentals: rentals,
		tx:      tx,
		journal: journal,
		logger:  logger,
	}
}

func (u *UseCase) HealthCheck(ctx context.Context) error {
	return u.repo.HealthCheck(ctx)
}

func (u *UseCase) Create(ctx context.Context, params CreateParams) (models.Payment, error) {
	verr := pkgErrors.NewValidationError()
	if !params.Amount.IsPositive() {
		verr.Add("amount", "The amount must be greater than 0.")
	} else if !models.FitsMoney(params.Amount) {
		verr.Add("amount", "The amount must have at most 2 decimal places and not exceed 99999999.99.")
	}
	if !params.PaymentMethod.Valid() {
		verr.Add("payment_method", "The selected payment method is invalid.")
	}
	if !params.Status.Valid() {
		verr.Add("status", "The selected status is invalid.")
	}
	if err := verr.OrNil(); err != nil {
		return models.Payment{}, err
	}

	var payment models.Payment
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		rental, err := u.rentals.GetForUpdate(ctx, params.RentalID)
		if err != nil {
			if errors.Is(err, pkgErrors.ErrRentalNotFound) {
				return pkgErrors.FieldError("rental_id", "The selected rental id is invalid.")
			}
			return err
		}

		if params.Status.Counted() {
			if err = u.checkTotal(ctx, rental, params.Amount); err != nil {
				return err
			}
		}

		payment, err = u.repo.Create(ctx, models.Payment{
			RentalID:      params.RentalID,
			Amount:        params.Amount,
			PaymentMethod: params.PaymentMethod,
			Status:        params.Status,
		})
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}

	u.logger.Info("payment created",
		slog.Int("payment_id", payment.ID),
		slog.Int("rental_id", payment.RentalID),
	)
	u.publish(ctx, event{journal.KindPaymentCreated, payment.ID, paymentPayload(payment)})

	return payment, nil
}

// checkTotal rejects an amount that would push pending and completed payments past the rental price.
func (u *UseCase) checkTotal(ctx context.Context, rental models.Rental, amount decimal.Decimal) error {
	sum, err := u.repo.SumCounted(ctx, rental.ID)
	if err != nil {
		return err
	}
	if sum.Add(amount).GreaterThan(rental.TotalPrice) {
		return pkgErrors.ErrPaymentExceedsTotal
	}
	return nil
}

func (u *UseCase) Get(ctx context.Context, id int) (models.Payment, error) {
	return u.repo.Get(ctx, id)
}

func (u *UseCase) List(ctx context.Context) ([]models.Payment, error) {
	return u.repo.List(ctx)
}

func (u *UseCase) ListByRental(ctx context.Context, rentalID int) ([]models.Payment, error) {
	if _, err := u.rentals.Get(ctx, rentalID); err != nil {
		return nil, err
	}
	return u.repo.ListByRental(ctx, rentalID)
}

func (u *UseCase) Delete(ctx context.Context, id int) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}

	u.logger.Info("payment deleted", slog.Int("payment_id", id))
	return nil
}

// UpdateStatus is the manual status change. Terminal statuses drive the rental
// exactly like a gateway outcome does.
func (u *UseCase) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) (models.Payment, error) {
	if !status.Valid() {
		return models.Payment{}, pkgErrors.FieldError("status", "The selected status is invalid.")
	}

	var (
		payment models.Payment
		events  []event
	)
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		resolved, err := u.repo.Get(ctx, id)
		if err != nil {
			return err
		}

		rental, current, err := u.lock(ctx, resolved)
		if err != nil {
			return err
		}
		if current.Status == status {
			payment = current
			return nil
		}

		if !current.Status.Counted() && status.Counted() {
			if err = u.checkTotal(ctx, rental, current.Amount); err != nil {
				return err
			}
		}

		payment, events, err = u.transition(ctx, current, rental, status)
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}

	u.publish(ctx, events...)
	return payment, nil
}

// ApplyCheckoutOutcome records a gateway outcome on the payment bound to the
// session. Replays for a payment that is already terminal change nothing.
func (u *UseCase) ApplyCheckoutOutcome(ctx context.Context, outcome Outcome) (models.Payment, error) {
	if !outcome.Status.Terminal() {
		return models.Payment{}, errors.Errorf("checkout outcome %q is not terminal", outcome.Status)
	}

	var (
		payment models.Payment
		events  []event
	)
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		resolved, err := u.findForOutcome(ctx, outcome)
		if err != nil {
			return err
		}

		rental, current, err := u.lock(ctx, resolved)
		if err != nil {
			return err
		}
		if sessionOf(current) != sessionOf(resolved) {
			u.logger.Warn("checkout outcome for a superseded session",
				slog.Int("payment_id", current.ID),
				slog.String("session_id", outcome.SessionID),
				slog.String("current_session_id", sessionOf(current)),
			)
			return pkgErrors.ErrPaymentNotFound
		}

		if current.Status.Terminal() {
			payment = current
			events = u.replayed(current, outcome)
			return nil
		}

		payment, events, err = u.transition(ctx, current, rental, outcome.Status)
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}

	u.publish(ctx, events...)
	return payment, nil
}

// findForOutcome resolves the payment without locking it. Only the payment
// currently bound to the session matches; the rental fallback covers a payment
// no session was attached to yet and never one bound to a newer session.
func (u *UseCase) findForOutcome(ctx context.Context, outcome Outcome) (models.Payment, error) {
	if outcome.SessionID != "" {
		payment, err := u.repo.GetBySession(ctx, outcome.SessionID)
		if !errors.Is(err, pkgErrors.ErrPaymentNotFound) || outcome.RentalID == 0 {
			return payment, err
		}
	}
	if outcome.RentalID == 0 {
		return models.Payment{}, pkgErrors.ErrPaymentNotFound
	}

	return u.repo.FindUnattached(ctx, outcome.RentalID)
}

// lock takes the rental row and then the payment row. Every writer touching
// both locks them in this order.
func (u *UseCase) lock(ctx context.Context, resolved models.Payment) (models.Rental, models.Payment, error) {
	rental, err := u.rentals.GetForUpdate(ctx, resolved.RentalID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRentalNotFound) {
			return models.Rental{}, models.Payment{}, pkgErrors.ErrPaymentNotFound
		}
		return models.Rental{}, models.Payment{}, err
	}

	current, err := u.repo.GetForUpdate(ctx, resolved.ID)
	if err != nil {
		return models.Rental{}, models.Payment{}, err
	}

	return rental, current, nil
}

// replayed handles an outcome for a terminal payment. Money collected after the
// payment was closed is reported for reconciliation.
func (u *UseCase) replayed(current models.Payment, outcome Outcome) []event {
	if outcome.Status != models.PaymentCompleted || current.Status == models.PaymentCompleted {
		u.logger.Info("checkout outcome already applied",
			slog.Int("payment_id", current.ID),
			slog.String("session_id", outcome.SessionID),
			slog.String("status", string(current.Status)),
		)
		return nil
	}

	u.logger.Warn("checkout paid after payment was closed",
		slog.Int("payment_id", current.ID),
		slog.Int("rental_id", current.RentalID),
		slog.String("session_id", outcome.SessionID),
		slog.String("status", string(current.Status)),
	)
	payload := paymentPayload(current)
	payload["outcome"] = outcome.Status
	return []event{{journal.KindPaymentReconcile, current.ID, payload}}
}

// transition stores the new payment status and moves a pending rental:
// completed activates it, failed or canceled cancels it. rental must be locked.
func (u *UseCase) transition(ctx context.Context, payment models.Payment, rental models.Rental, status models.PaymentStatus) (models.Payment, []event, error) {
	updated, err := u.repo.UpdateStatus(ctx, payment.ID, status)
	if err != nil {
		return models.Payment{}, nil, err
	}

	u.logger.Info("payment status changed",
		slog.Int("payment_id", updated.ID),
		slog.Int("rental_id", updated.RentalID),
		slog.String("from", string(payment.Status)),
		slog.String("to", string(status)),
	)
	events := []event{{paymentKind(status), updated.ID, paymentPayload(updated)}}

	if !status.Terminal() || rental.Status != models.RentalPending {
		return updated, events, nil
	}

	next, kind := models.RentalCanceled, journal.KindRentalCanceled
	if status == models.PaymentCompleted {
		next, kind = models.RentalActive, journal.KindRentalActivated
	}

	rental, err = u.rentals.UpdateStatus(ctx, rental.ID, next)
	if err != nil {
		return models.Payment{}, nil, err
	}

	u.logger.Info("rental status changed by payment",
		slog.Int("rental_id", rental.ID),
		slog.Int("payment_id", updated.ID),
		slog.String("status", string(rental.Status)),
	)
	events = append(events, event{kind, rental.ID, map[string]any{
		"rental_id":  rental.ID,
		"payment_id": updated.ID,
		"status":     rental.Status,
	}})

	return updated, events, nil
}

func (u *UseCase) publish(ctx context.Context, events ...event) {
	if u.journal == nil {
		return
	}
	for _, e := range events {
		if err := u.journal.Publish(ctx, e.kind, e.subjectID, e.payload); err != nil {
			u.logger.Warn("journal publish failed", slog.String("kind", e.kind), slog.String("error", err.Error()))
		}
	}
}

func paymentKind(status models.PaymentStatus) string {
	switch status {
	case models.PaymentCompleted:
		return journal.KindPaymentCompleted
	case models.PaymentFailed:
		return journal.KindPaymentFailed
	case models.PaymentCanceled:
		return journal.KindPaymentCanceled
	default:
		return journal.KindPaymentUpdated
	}
}

func sessionOf(payment models.Payment) string {
	if payment.SessionID == nil {
		return ""
	}
	return *payment.SessionID
}

func paymentPayload(payment models.Payment) map[string]any {
	payload := map[string]any{
		"payment_id":     payment.ID,
		"rental_id":      payment.RentalID,
		"amount":         payment.Amount.StringFixed(2),
		"payment_method": payment.PaymentMethod,
		"status":         payment.Status,
	}
	if payment.SessionID != nil {
		payload["session_id"] = *payment.SessionID
	}
	return payload
}
