package delivery

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	"github.com/SlavaShagalov/car-rental-api/internal/pkg/app"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/delivery/mocks"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
)

const tokenUserID = 7

func newTestApp(t *testing.T) (*fiber.App, *mocks.MockUseCase) {
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockUseCase(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := func(c *fiber.Ctx) error {
		c.SetUserContext(app.WithUserID(c.UserContext(), tokenUserID))
		return c.Next()
	}

	webApp := app.NewFiberApp(app.WebConfig{Prefix: "/api"},
		[]app.Delivery{New(uc, app.NewValidator(), logger)}, nil, nil, auth, logger)
	return webApp.App(), uc
}

func do(t *testing.T, fiberApp *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func TestCreateRental(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Create(gomock.Any(), usecase.CreateParams{
		UserID:    tokenUserID,
		CarID:     3,
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}).Return(usecase.Booking{CheckoutURL: "https://checkout.stripe.com/c/pay/cs_1"}, nil)

	status, body := do(t, fiberApp, http.MethodPost, "/api/rentals",
		`{"car_id": 3, "start_date": "2025-03-10", "end_date": "2025-03-12", "total_price": 1, "status": "active"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"checkout_url": "https://checkout.stripe.com/c/pay/cs_1"}, body)
}

func TestCreateRentalValidation(t *testing.T) {
	fiberApp, _ := newTestApp(t)

	status, body := do(t, fiberApp, http.MethodPost, "/api/rentals",
		`{"user_id": 1, "start_date": "10/03/2025"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "The given data was invalid.", body["message"])
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "car_id")
	assert.Contains(t, errs, "start_date")
	assert.Contains(t, errs, "end_date")
}

func TestCreateRentalMalformedBody(t *testing.T) {
	fiberApp, _ := newTestApp(t)

	status, _ := do(t, fiberApp, http.MethodPost, "/api/rentals", `{"car_id": `)

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateRentalGatewayFailure(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(usecase.Booking{}, &pkgErrors.GatewayError{Err: fiber.ErrGatewayTimeout})

	status, body := do(t, fiberApp, http.MethodPost, "/api/rentals",
		`{"car_id": 3, "start_date": "2025-03-10", "end_date": "2025-03-12"}`)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body["error"], "checkout gateway")
}

func TestDeleteUnknownRental(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Delete(gomock.Any(), 42).Return(pkgErrors.ErrRentalNotFound)

	status, body := do(t, fiberApp, http.MethodDelete, "/api/rentals/42", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, map[string]any{"message": "Rental not found"}, body)
}

func TestDeleteRental(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Delete(gomock.Any(), 5).Return(nil)

	status, body := do(t, fiberApp, http.MethodDelete, "/api/rentals/5", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Rental deleted successfully", body["message"])
}

func TestGetRental(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Get(gomock.Any(), 5).Return(models.Rental{
		ID:         5,
		UserID:     1,
		CarID:      3,
		StartDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		TotalPrice: decimal.NewFromInt(100),
		Status:     models.RentalPending,
	}, nil)

	status, body := do(t, fiberApp, http.MethodGet, "/api/rentals/5", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-03-10", body["start_date"])
	assert.Equal(t, "2025-03-12", body["end_date"])
	assert.Equal(t, float64(100), body["total_price"])
	assert.Equal(t, "pending", body["status"])
}

func TestGetRentalBadID(t *testing.T) {
	fiberApp, _ := newTestApp(t)

	status, body := do(t, fiberApp, http.MethodGet, "/api/rentals/abc", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Rental not found", body["message"])
}

func TestUpdateRental(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params usecase.UpdateParams) (models.Rental, error) {
			assert.Equal(t, 5, params.ID)
			require.NotNil(t, params.Status)
			assert.Equal(t, models.RentalCompleted, *params.Status)
			assert.Nil(t, params.StartDate)
			return models.Rental{ID: 5, Status: models.RentalCompleted}, nil
		})

	status, body := do(t, fiberApp, http.MethodPut, "/api/rentals/5", `{"status": "completed"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
}

func TestUpdateRentalInvalidStatus(t *testing.T) {
	fiberApp, _ := newTestApp(t)

	status, body := do(t, fiberApp, http.MethodPut, "/api/rentals/5", `{"status": "lost"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "status")
}

func TestListByUser(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().ListByUser(gomock.Any(), 1).Return([]models.Rental{{ID: 1}, {ID: 2}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users/1/rentals", nil)
	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rentals []RentalDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rentals))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, rentals, 2)
}

func TestCheckoutRetryConflict(t *testing.T) {
	fiberApp, uc := newTestApp(t)

	uc.EXPECT().Checkout(gomock.Any(), 5).Return(usecase.Booking{}, pkgErrors.ErrRentalNotPending)

	status, body := do(t, fiberApp, http.MethodPost, "/api/rentals/5/checkout", "")

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Rental is not pending", body["message"])
}
