package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/ozontech/allure-go/pkg/allure"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/usecase/mocks"
)

type RentalSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	repo     *mocks.MockRepository
	payments *mocks.MockPaymentRepository
	cars     *mocks.MockCarRepository
	users    *mocks.MockUserRepository
	checkout *mocks.MockCheckout
	tx       *mocks.MockTransactor
	journal  *mocks.MockJournal
	uc       *usecase.UseCase
}

var (
	march10 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	march12 = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	march14 = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
)

func testCar() models.Car {
	return models.Car{
		ID:       3,
		Make:     "Toyota",
		Model:    "Corolla",
		Matricul: "AB-123-CD",
		Price:    decimal.RequireFromString("50.00"),
		Status:   models.CarAvailable,
	}
}

func (s *RentalSuite) BeforeEach(t provider.T) {
	s.ctrl = gomock.NewController(t)
	s.repo = mocks.NewMockRepository(s.ctrl)
	s.payments = mocks.NewMockPaymentRepository(s.ctrl)
	s.cars = mocks.NewMockCarRepository(s.ctrl)
	s.users = mocks.NewMockUserRepository(s.ctrl)
	s.checkout = mocks.NewMockCheckout(s.ctrl)
	s.tx = mocks.NewMockTransactor(s.ctrl)
	s.journal = mocks.NewMockJournal(s.ctrl)

	s.tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
	s.journal.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.uc = usecase.New(s.repo, s.payments, s.cars, s.users, s.checkout, s.tx, s.journal, logger)
}

func (s *RentalSuite) AfterEach(t provider.T) {
	s.ctrl.Finish()
}

func (s *RentalSuite) expectBooking() {
	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rental models.Rental) (models.Rental, error) {
			rental.ID = 11
			return rental, nil
		})
	s.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, payment models.Payment) (models.Payment, error) {
			payment.ID = 21
			return payment, nil
		})
}

func (s *RentalSuite) TestCreatePendingRentalWithCheckout(t provider.T) {
	t.Title("create rental: 50/day for 2025-03-10..2025-03-12 costs 100 and opens checkout")
	t.Feature("rental ledger")

	s.users.EXPECT().GetByID(gomock.Any(), 1).Return(models.User{ID: 1}, nil)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)
	s.expectBooking()
	s.checkout.EXPECT().OpenSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params usecase.CheckoutParams) (string, error) {
			t.Assert().Equal(11, params.RentalID)
			t.Assert().Equal(21, params.PaymentID)
			t.Assert().True(decimal.NewFromInt(100).Equal(params.Amount))
			t.Assert().Contains(params.Description, "Toyota Corolla")
			return "https://checkout.stripe.com/c/pay/cs_test_1", nil
		})

	booking, err := s.uc.Create(context.Background(), usecase.CreateParams{
		UserID:    1,
		CarID:     3,
		StartDate: march10,
		EndDate:   march12,
	})

	t.Require().NoError(err)
	t.Assert().Equal("https://checkout.stripe.com/c/pay/cs_test_1", booking.CheckoutURL)
	t.Assert().Equal(models.RentalPending, booking.Rental.Status)
	t.Assert().True(decimal.NewFromInt(100).Equal(booking.Rental.TotalPrice))
	t.Assert().Equal(models.PaymentPending, booking.Payment.Status)
	t.Assert().Equal(models.PaymentStripe, booking.Payment.PaymentMethod)
	t.Assert().True(decimal.NewFromInt(100).Equal(booking.Payment.Amount))
	t.Assert().Equal(11, booking.Payment.RentalID)
}

func (s *RentalSuite) TestCreateRejectsEndBeforeStart(t provider.T) {
	t.Title("create rental: end date must follow start date")

	s.users.EXPECT().GetByID(gomock.Any(), 1).Return(models.User{ID: 1}, nil).Times(2)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil).Times(2)

	for _, end := range []time.Time{march10, march10.Add(-time.Hour)} {
		t.WithParameters(allure.NewParameter("end_date", end.Format(time.RFC3339)))

		_, err := s.uc.Create(context.Background(), usecase.CreateParams{
			UserID:    1,
			CarID:     3,
			StartDate: march10,
			EndDate:   end,
		})

		var verr *pkgErrors.ValidationError
		t.Require().True(errors.As(err, &verr))
		t.Assert().Contains(verr.Fields, "end_date")
	}
}

func (s *RentalSuite) TestCreateRejectsUnknownReferences(t provider.T) {
	t.Title("create rental: unknown user and car are field errors")

	s.users.EXPECT().GetByID(gomock.Any(), 404).Return(models.User{}, pkgErrors.ErrUserNotFound)
	s.cars.EXPECT().Get(gomock.Any(), 405).Return(models.Car{}, pkgErrors.ErrCarNotFound)

	_, err := s.uc.Create(context.Background(), usecase.CreateParams{
		UserID:    404,
		CarID:     405,
		StartDate: march10,
		EndDate:   march12,
	})

	var verr *pkgErrors.ValidationError
	t.Require().True(errors.As(err, &verr))
	t.Assert().Contains(verr.Fields, "user_id")
	t.Assert().Contains(verr.Fields, "car_id")
}

func (s *RentalSuite) TestCreateKeepsPendingRecordsOnGatewayFailure(t provider.T) {
	t.Title("create rental: gateway failure surfaces GatewayError, records stay pending")

	s.users.EXPECT().GetByID(gomock.Any(), 1).Return(models.User{ID: 1}, nil)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)
	s.expectBooking()
	s.checkout.EXPECT().OpenSession(gomock.Any(), gomock.Any()).
		Return("", &pkgErrors.GatewayError{Err: context.DeadlineExceeded})

	booking, err := s.uc.Create(context.Background(), usecase.CreateParams{
		UserID:    1,
		CarID:     3,
		StartDate: march10,
		EndDate:   march12,
	})

	var gerr *pkgErrors.GatewayError
	t.Require().True(errors.As(err, &gerr))
	t.Assert().ErrorIs(err, context.DeadlineExceeded)
	t.Assert().Empty(booking.CheckoutURL)
	t.Assert().Equal(11, booking.Rental.ID)
	t.Assert().Equal(models.RentalPending, booking.Rental.Status)
	t.Assert().Equal(models.PaymentPending, booking.Payment.Status)
}

func (s *RentalSuite) TestUpdateUnknownRental(t provider.T) {
	t.Title("update rental: unknown id is NotFound and nothing is written")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 99).Return(models.Rental{}, pkgErrors.ErrRentalNotFound)

	status := models.RentalActive
	_, err := s.uc.Update(context.Background(), usecase.UpdateParams{ID: 99, Status: &status})

	t.Require().ErrorIs(err, pkgErrors.ErrRentalNotFound)
}

func (s *RentalSuite) TestUpdateRecomputesPriceOnDateChange(t provider.T) {
	t.Title("update rental: moving the end date reprices the rental")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{
		ID:         11,
		UserID:     1,
		CarID:      3,
		StartDate:  march10,
		EndDate:    march12,
		TotalPrice: decimal.NewFromInt(100),
		Status:     models.RentalPending,
	}, nil)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)
	s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rental models.Rental) (models.Rental, error) {
			return rental, nil
		})

	end := march14
	rental, err := s.uc.Update(context.Background(), usecase.UpdateParams{ID: 11, EndDate: &end})

	t.Require().NoError(err)
	t.Assert().True(decimal.NewFromInt(200).Equal(rental.TotalPrice), rental.TotalPrice.String())
	t.Assert().Equal(march14, rental.EndDate)
}

func (s *RentalSuite) TestUpdateExplicitPriceWins(t provider.T) {
	t.Title("update rental: an explicit total_price is stored as given")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{
		ID:         11,
		CarID:      3,
		StartDate:  march10,
		EndDate:    march12,
		TotalPrice: decimal.NewFromInt(100),
		Status:     models.RentalPending,
	}, nil)
	s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rental models.Rental) (models.Rental, error) {
			return rental, nil
		})

	end := march14
	price := decimal.RequireFromString("120.50")
	rental, err := s.uc.Update(context.Background(), usecase.UpdateParams{ID: 11, EndDate: &end, TotalPrice: &price})

	t.Require().NoError(err)
	t.Assert().Equal("120.50", rental.TotalPrice.StringFixed(2))
}

func (s *RentalSuite) TestUpdateRejectsTotalOutsideMoneyColumn(t provider.T) {
	t.Title("update rental: total_price must have at most 2 decimals and fit 99999999.99")

	for _, value := range []string{"120.505", "100000000"} {
		s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{
			ID:         11,
			CarID:      3,
			StartDate:  march10,
			EndDate:    march12,
			TotalPrice: decimal.NewFromInt(100),
			Status:     models.RentalPending,
		}, nil)

		price := decimal.RequireFromString(value)
		_, err := s.uc.Update(context.Background(), usecase.UpdateParams{ID: 11, TotalPrice: &price})

		var verr *pkgErrors.ValidationError
		t.Require().True(errors.As(err, &verr), value)
		t.Assert().Contains(verr.Fields, "total_price")
	}
}

func (s *RentalSuite) TestCreateRejectsTotalAboveMoneyColumn(t provider.T) {
	t.Title("create rental: a computed total above 99999999.99 is a validation error")

	car := testCar()
	car.Price = decimal.RequireFromString("60000000.00")
	s.users.EXPECT().GetByID(gomock.Any(), 1).Return(models.User{ID: 1}, nil)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(car, nil)

	_, err := s.uc.Create(context.Background(), usecase.CreateParams{
		UserID:    1,
		CarID:     3,
		StartDate: march10,
		EndDate:   march12,
	})

	var verr *pkgErrors.ValidationError
	t.Require().True(errors.As(err, &verr))
	t.Assert().Contains(verr.Fields, "total_price")
}

func (s *RentalSuite) TestUpdateRejectsInvertedDates(t provider.T) {
	t.Title("update rental: date order is re-checked")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{
		ID:        11,
		CarID:     3,
		StartDate: march10,
		EndDate:   march12,
		Status:    models.RentalPending,
	}, nil)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)

	start := march14
	_, err := s.uc.Update(context.Background(), usecase.UpdateParams{ID: 11, StartDate: &start})

	var verr *pkgErrors.ValidationError
	t.Require().True(errors.As(err, &verr))
	t.Assert().Contains(verr.Fields, "end_date")
}

func (s *RentalSuite) TestDeleteRemovesPayments(t provider.T) {
	t.Title("delete rental: payments go in the same transaction")

	gomock.InOrder(
		s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{ID: 11}, nil),
		s.payments.EXPECT().DeleteByRental(gomock.Any(), 11).Return(int64(2), nil),
		s.repo.EXPECT().Delete(gomock.Any(), 11).Return(nil),
	)

	t.Require().NoError(s.uc.Delete(context.Background(), 11))
}

func (s *RentalSuite) TestDeleteUnknownRental(t provider.T) {
	t.Title("delete rental: unknown id is NotFound")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 99).Return(models.Rental{}, pkgErrors.ErrRentalNotFound)

	err := s.uc.Delete(context.Background(), 99)

	t.Require().ErrorIs(err, pkgErrors.ErrRentalNotFound)
}

func (s *RentalSuite) TestCheckoutReusesPendingPayment(t provider.T) {
	t.Title("checkout retry: pending rental gets a new session on its pending payment")

	rental := models.Rental{ID: 11, CarID: 3, StartDate: march10, EndDate: march12,
		TotalPrice: decimal.NewFromInt(100), Status: models.RentalPending}
	previous := "cs_test_old"
	payment := models.Payment{ID: 21, RentalID: 11, Amount: decimal.NewFromInt(100),
		PaymentMethod: models.PaymentStripe, Status: models.PaymentPending, SessionID: &previous}

	gomock.InOrder(
		s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(rental, nil),
		s.payments.EXPECT().FindPendingForUpdate(gomock.Any(), 11).Return(payment, nil),
	)
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)
	s.checkout.EXPECT().OpenSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params usecase.CheckoutParams) (string, error) {
			t.Assert().Equal(21, params.PaymentID)
			t.Assert().Equal("cs_test_old", params.PreviousSessionID)
			return "https://checkout.example/2", nil
		})

	booking, err := s.uc.Checkout(context.Background(), 11)

	t.Require().NoError(err)
	t.Assert().Equal("https://checkout.example/2", booking.CheckoutURL)
	t.Assert().Equal(21, booking.Payment.ID)
}

func (s *RentalSuite) TestCheckoutCreatesPaymentWhenNonePending(t provider.T) {
	t.Title("checkout retry: a failed payment is replaced by a new pending one")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{ID: 11, CarID: 3,
		StartDate: march10, EndDate: march12, TotalPrice: decimal.NewFromInt(100), Status: models.RentalPending}, nil)
	s.payments.EXPECT().FindPendingForUpdate(gomock.Any(), 11).Return(models.Payment{}, pkgErrors.ErrPaymentNotFound)
	s.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, payment models.Payment) (models.Payment, error) {
			payment.ID = 22
			return payment, nil
		})
	s.cars.EXPECT().Get(gomock.Any(), 3).Return(testCar(), nil)
	s.checkout.EXPECT().OpenSession(gomock.Any(), gomock.Any()).Return("https://checkout.example/3", nil)

	booking, err := s.uc.Checkout(context.Background(), 11)

	t.Require().NoError(err)
	t.Assert().Equal(22, booking.Payment.ID)
	t.Assert().Equal(models.PaymentPending, booking.Payment.Status)
}

func (s *RentalSuite) TestCheckoutRejectsActiveRental(t provider.T) {
	t.Title("checkout retry: only pending rentals")

	s.repo.EXPECT().GetForUpdate(gomock.Any(), 11).Return(models.Rental{ID: 11, Status: models.RentalActive}, nil)

	_, err := s.uc.Checkout(context.Background(), 11)

	t.Require().ErrorIs(err, pkgErrors.ErrRentalNotPending)
}

func (s *RentalSuite) TestListByUnknownUser(t provider.T) {
	t.Title("list rentals of an unknown user is NotFound")

	s.users.EXPECT().GetByID(gomock.Any(), 5).Return(models.User{}, pkgErrors.ErrUserNotFound)

	_, err := s.uc.ListByUser(context.Background(), 5)

	t.Require().ErrorIs(err, pkgErrors.ErrUserNotFound)
}

func TestRentalSuite(t *testing.T) {
	suite.RunSuite(t, new(RentalSuite))
}
