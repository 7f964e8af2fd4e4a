package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
)

const (
	msgEndBeforeStart = "The end date must be a date after start date."
	msgUnknownUser    = "The selected user id is invalid."
	msgUnknownCar     = "The selected car id is invalid."
	msgTotalFormat    = "The total price must have at most 2 decimal places and not exceed 99999999.99."
)

type UseCase struct {
	repo     Repository
	payments PaymentRepository
	cars     CarRepository
	users    UserRepository
	checkout Checkout
	tx       Transactor
	journal  Journal
	logger   *slog.Logger
}

// New builds the rental ledger. journal may be nil.
func New(
	repo Repository,
	payments PaymentRepository,
	cars CarRepository,
	users UserRepository,
	checkout Checkout,
	tx Transactor,
	journal Journal,
	logger *slog.Logger,
) *UseCase {
	return &UseCase{
		repo:     repo,
		payments: payments,
		cars:     cars,
		users:    users,
		checkout: checkout,
		tx:       tx,
		journal:  journal,
		logger:   logger,
	}
}

func (u *UseCase) HealthCheck(ctx context.Context) error {
	return u.repo.HealthCheck(ctx)
}

// Create books a car: a pending rental and its pending stripe payment are stored
// together, then a checkout session is opened for the total price.
// A gateway failure leaves both records pending and is returned with the booking.
func (u *UseCase) Create(ctx context.Context, params CreateParams) (Booking, error) {
	verr := pkgErrors.NewValidationError()
	if !params.EndDate.After(params.StartDate) {
		verr.Add("end_date", msgEndBeforeStart)
	}

	if _, err := u.users.GetByID(ctx, params.UserID); err != nil {
		if !errors.Is(err, pkgErrors.ErrUserNotFound) {
			return Booking{}, err
		}
		verr.Add("user_id", msgUnknownUser)
	}

	car, err := u.cars.Get(ctx, params.CarID)
	if err != nil {
		if !errors.Is(err, pkgErrors.ErrCarNotFound) {
			return Booking{}, err
		}
		verr.Add("car_id", msgUnknownCar)
	}

	if err = verr.OrNil(); err != nil {
		return Booking{}, err
	}

	total := TotalPrice(car.Price, params.StartDate, params.EndDate)
	if !models.FitsMoney(total) {
		return Booking{}, pkgErrors.FieldError("total_price", msgTotalFormat)
	}

	var booking Booking
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		rental, err := u.repo.Create(ctx, models.Rental{
			UserID:     params.UserID,
			CarID:      params.CarID,
			StartDate:  params.StartDate,
			EndDate:    params.EndDate,
			TotalPrice: total,
			Status:     models.RentalPending,
		})
		if err != nil {
			return err
		}

		payment, err := u.payments.Create(ctx, models.Payment{
			RentalID:      rental.ID,
			Amount:        rental.TotalPrice,
			PaymentMethod: models.PaymentStripe,
			Status:        models.PaymentPending,
		})
		if err != nil {
			return err
		}

		booking = Booking{Rental: rental, Payment: payment}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	u.logger.Info("rental created",
		slog.Int("rental_id", booking.Rental.ID),
		slog.Int("payment_id", booking.Payment.ID),
		slog.String("total_price", booking.Rental.TotalPrice.StringFixed(2)),
	)
	u.publish(ctx, journal.KindRentalCreated, booking.Rental.ID, rentalPayload(booking.Rental))
	u.publish(ctx, journal.KindPaymentCreated, booking.Payment.ID, paymentPayload(booking.Payment))

	booking.CheckoutURL, err = u.openSession(ctx, booking, car)
	return booking, err
}

// Checkout opens a new session for a rental that is still pending.
func (u *UseCase) Checkout(ctx context.Context, rentalID int) (Booking, error) {
	var (
		booking Booking
		created bool
	)
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		rental, err := u.repo.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if rental.Status != models.RentalPending {
			return pkgErrors.ErrRentalNotPending
		}

		payment, err := u.payments.FindPendingForUpdate(ctx, rental.ID)
		if errors.Is(err, pkgErrors.ErrPaymentNotFound) {
			payment, err = u.payments.Create(ctx, models.Payment{
				RentalID:      rental.ID,
				Amount:        rental.TotalPrice,
				PaymentMethod: models.PaymentStripe,
				Status:        models.PaymentPending,
			})
			created = err == nil
		}
		if err != nil {
			return err
		}

		booking = Booking{Rental: rental, Payment: payment}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	if created {
		u.publish(ctx, journal.KindPaymentCreated, booking.Payment.ID, paymentPayload(booking.Payment))
	}

	car, err := u.cars.Get(ctx, booking.Rental.CarID)
	if err != nil {
		return Booking{}, err
	}

	booking.CheckoutURL, err = u.openSession(ctx, booking, car)
	return booking, err
}

func (u *UseCase) openSession(ctx context.Context, booking Booking, car models.Car) (string, error) {
	rental := booking.Rental

	params := CheckoutParams{
		RentalID:  rental.ID,
		PaymentID: booking.Payment.ID,
		Amount:    booking.Payment.Amount,
		Description: fmt.Sprintf("%s %s (%s), %s to %s",
			car.Make, car.Model, car.Matricul,
			models.FormatDate(rental.StartDate), models.FormatDate(rental.EndDate)),
	}
	if booking.Payment.SessionID != nil {
		params.PreviousSessionID = *booking.Payment.SessionID
	}

	url, err := u.checkout.OpenSession(ctx, params)
	if err != nil {
		u.logger.Warn("checkout session not opened, rental stays pending",
			slog.Int("rental_id", rental.ID),
			slog.Int("payment_id", booking.Payment.ID),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	return url, nil
}

func (u *UseCase) Get(ctx context.Context, id int) (models.Rental, error) {
	return u.repo.Get(ctx, id)
}

// Update applies a partial update. Changing the dates or the car recomputes
// total_price unless the request sets it explicitly.
func (u *UseCase) Update(ctx context.Context, params UpdateParams) (models.Rental, error) {
	var updated models.Rental
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		rental, err := u.repo.GetForUpdate(ctx, params.ID)
		if err != nil {
			return err
		}

		verr := pkgErrors.NewValidationError()
		reprice := false

		if params.UserID != nil && *params.UserID != rental.UserID {
			if _, err = u.users.GetByID(ctx, *params.UserID); err != nil {
				if !errors.Is(err, pkgErrors.ErrUserNotFound) {
					return err
				}
				verr.Add("user_id", msgUnknownUser)
			}
			rental.UserID = *params.UserID
		}

		var car models.Car
		if params.CarID != nil && *params.CarID != rental.CarID {
			reprice = true
			rental.CarID = *params.CarID
		}
		if params.StartDate != nil && !params.StartDate.Equal(rental.StartDate) {
			reprice = true
			rental.StartDate = *params.StartDate
		}
		if params.EndDate != nil && !params.EndDate.Equal(rental.EndDate) {
			reprice = true
			rental.EndDate = *params.EndDate
		}
		if !rental.EndDate.After(rental.StartDate) {
			verr.Add("end_date", msgEndBeforeStart)
		}

		if params.CarID != nil || (reprice && params.TotalPrice == nil) {
			car, err = u.cars.Get(ctx, rental.CarID)
			if err != nil {
				if !errors.Is(err, pkgErrors.ErrCarNotFound) {
					return err
				}
				verr.Add("car_id", msgUnknownCar)
			}
		}

		if params.TotalPrice != nil {
			rental.TotalPrice = *params.TotalPrice
		} else if reprice {
			rental.TotalPrice = TotalPrice(car.Price, rental.StartDate, rental.EndDate)
		}
		if rental.TotalPrice.IsNegative() {
			verr.Add("total_price", "The total price must be at least 0.")
		} else if !models.FitsMoney(rental.TotalPrice) {
			verr.Add("total_price", msgTotalFormat)
		}

		if params.Status != nil {
			if !params.Status.Valid() {
				verr.Add("status", "The selected status is invalid.")
			}
			rental.Status = *params.Status
		}

		if err = verr.OrNil(); err != nil {
			return err
		}

		updated, err = u.repo.Update(ctx, rental)
		return err
	})
	if err != nil {
		return models.Rental{}, err
	}

	u.logger.Info("rental updated",
		slog.Int("rental_id", updated.ID),
		slog.String("status", string(updated.Status)),
	)
	u.publish(ctx, journal.KindRentalUpdated, updated.ID, rentalPayload(updated))

	return updated, nil
}

// Delete removes the rental together with its payments.
func (u *UseCase) Delete(ctx context.Context, id int) error {
	var removed int64
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := u.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}

		var err error
		removed, err = u.payments.DeleteByRental(ctx, id)
		if err != nil {
			return err
		}

		return u.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	u.logger.Info("rental deleted", slog.Int("rental_id", id), slog.Int64("payments_deleted", removed))
	u.publish(ctx, journal.KindRentalDeleted, id, map[string]any{"rental_id": id, "payments_deleted": removed})

	return nil
}

func (u *UseCase) List(ctx context.Context) ([]models.Rental, error) {
	return u.repo.List(ctx)
}

func (u *UseCase) ListByUser(ctx context.Context, userID int) ([]models.Rental, error) {
	if _, err := u.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return u.repo.ListByUser(ctx, userID)
}

func (u *UseCase) ListByCar(ctx context.Context, carID int) ([]models.Rental, error) {
	if _, err := u.cars.Get(ctx, carID); err != nil {
		return nil, err
	}
	return u.repo.ListByCar(ctx, carID)
}

func (u *UseCase) publish(ctx context.Context, kind string, subjectID int, payload any) {
	if u.journal == nil {
		return
	}
	if err := u.journal.Publish(ctx, kind, subjectID, payload); err != nil {
		u.logger.Warn("journal publish failed", slog.String("kind", kind), slog.String("error", err.Error()))
	}
}

func rentalPayload(rental models.Rental) map[string]any {
	return map[string]any{
		"rental_id":   rental.ID,
		"user_id":     rental.UserID,
		"car_id":      rental.CarID,
		"start_date":  models.FormatDate(rental.StartDate),
		"end_date":    models.FormatDate(rental.EndDate),
		"total_price": rental.TotalPrice.StringFixed(2),
		"status":      rental.Status,
	}
}

func paymentPayload(payment models.Payment) map[string]any {
	return map[string]any{
		"payment_id":     payment.ID,
		"rental_id":      payment.RentalID,
		"amount":         payment.Amount.StringFixed(2),
		"payment_method": payment.PaymentMethod,
		"status":         payment.Status,
	}
}
