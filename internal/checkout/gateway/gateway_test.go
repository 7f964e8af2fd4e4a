package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	config := DefaultConfig()
	config.APIKey = "sk_test_123"
	config.BaseURL = baseURL
	config.SuccessURL = "http://rental.local/api/checkout/success"
	config.CancelURL = "http://rental.local/api/checkout/cancel"
	config.WebhookSecret = "whsec_test"
	config.Timeout = time.Second
	config.MaxFailures = 2
	config.OpenTimeout = time.Minute
	return config
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(10000), MinorUnits(decimal.NewFromInt(100)))
	require.Equal(t, int64(15075), MinorUnits(decimal.RequireFromString("150.75")))
	require.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestCreateSession(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1","status":"open","payment_status":"unpaid","metadata":{"rental_id":"42"}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	session, err := g.CreateSession(context.Background(), SessionParams{
		RentalID:    42,
		Amount:      decimal.NewFromInt(100),
		Description: "Rental for Toyota Corolla",
	})
	require.NoError(t, err)

	require.Equal(t, Session{
		ID:            "cs_test_1",
		URL:           "https://checkout.stripe.com/c/pay/cs_test_1",
		RentalID:      42,
		Status:        "open",
		PaymentStatus: PaymentStatusUnpaid,
	}, session)

	require.Equal(t, "10000", form.Get("line_items[0][price_data][unit_amount]"))
	require.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	require.Equal(t, "Rental for Toyota Corolla", form.Get("line_items[0][price_data][product_data][description]"))
	require.Equal(t, "42", form.Get("metadata[rental_id]"))
	require.Equal(t, "payment", form.Get("mode"))
	require.Equal(t, "http://rental.local/api/checkout/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
	require.Equal(t, "http://rental.local/api/checkout/cancel?session_id={CHECKOUT_SESSION_ID}", form.Get("cancel_url"))
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"cs_test_1","status":"complete","payment_status":"paid","client_reference_id":"7","metadata":{}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	session, err := g.GetSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, 7, session.RentalID)
	require.True(t, session.Paid())
}

func TestCreateSession_Rejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	for i := 0; i < 3; i++ {
		_, err := g.CreateSession(context.Background(), SessionParams{RentalID: 1, Amount: decimal.NewFromInt(10)})
		require.ErrorIs(t, err, ErrRejected)
		require.Contains(t, err.Error(), "Invalid currency")
	}

	// client errors must not open the breaker
	require.Equal(t, int32(3), calls.Load())
}

func TestCreateSession_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"type":"api_error","message":"Service unavailable"}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	params := SessionParams{RentalID: 1, Amount: decimal.NewFromInt(10)}

	_, err := g.CreateSession(context.Background(), params)
	require.ErrorIs(t, err, ErrServer)
	_, err = g.CreateSession(context.Background(), params)
	require.ErrorIs(t, err, ErrServer)

	_, err = g.CreateSession(context.Background(), params)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, int32(2), calls.Load())
}

func TestCreateSession_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	config := testConfig(srv.URL)
	config.Timeout = 50 * time.Millisecond

	g := New(config, srv.Client(), testLogger())
	_, err := g.CreateSession(context.Background(), SessionParams{RentalID: 1, Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, ErrServer)
}

func TestCreateSession_MissingCorrelation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/x"}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	_, err := g.CreateSession(context.Background(), SessionParams{RentalID: 1, Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, ErrDecode)
}

func TestExpireSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_test_1/expire", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"cs_test_1","status":"expired","payment_status":"unpaid","metadata":{"rental_id":"42"}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	session, err := g.ExpireSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, "expired", session.Status)
	require.False(t, session.Paid())
}

func TestExpireSession_AlreadyComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"Only Checkout Sessions with a status of open can be expired."}}`)
	}))
	defer srv.Close()

	g := New(testConfig(srv.URL), srv.Client(), testLogger())
	_, err := g.ExpireSession(context.Background(), "cs_test_1")
	require.ErrorIs(t, err, ErrRejected)
}
