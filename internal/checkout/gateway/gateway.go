package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type GatewayError string

func (e GatewayError) Error() string {
	return string(e)
}

const (
	// ErrRejected marks 4xx answers: the request itself is wrong, retrying will not help.
	ErrRejected GatewayError = "checkout request rejected"
	ErrServer   GatewayError = "checkout provider error"
	ErrDecode   GatewayError = "unexpected checkout response"
)

// CheckoutSessionIDTemplate is substituted by Stripe with the real session id on redirect.
const CheckoutSessionIDTemplate = "{CHECKOUT_SESSION_ID}"

const (
	PaymentStatusPaid   = string(stripe.CheckoutSessionPaymentStatusPaid)
	PaymentStatusUnpaid = string(stripe.CheckoutSessionPaymentStatusUnpaid)
)

type SessionParams struct {
	RentalID    int
	Amount      decimal.Decimal
	Description string
}

type Session struct {
	ID            string
	URL           string
	RentalID      int
	Status        string
	PaymentStatus string
}

// Paid reports whether the customer has settled the session.
func (s Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid ||
		s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)
}

// requestError keeps the classification and the underlying stripe or transport error.
type requestError struct {
	kind GatewayError
	err  error
}

func (e *requestError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *requestError) Is(target error) bool {
	return target == e.kind
}

func (e *requestError) Unwrap() error {
	return e.err
}

type StripeGateway struct {
	config   Config
	sessions *session.Client
	breaker  *gobreaker.CircuitBreaker[Session]
	logger   *slog.Logger
}

// New binds the API key to its own session client; the package-level stripe.Key is never set.
func New(config Config, client *http.Client, logger *slog.Logger) *StripeGateway {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        client,
		URL:               stripe.String(strings.TrimRight(config.BaseURL, "/")),
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
		LeveledLogger:     &leveledLogger{logger: logger},
	})

	maxFailures := config.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &StripeGateway{
		config:   config,
		sessions: &session.Client{B: backend, Key: config.APIKey},
		breaker:  gobreaker.NewCircuitBreaker[Session](settings),
		logger:   logger,
	}
}

// MinorUnits converts an amount to integer cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *StripeGateway) CreateSession(ctx context.Context, params SessionParams) (Session, error) {
	rentalID := strconv.Itoa(params.RentalID)

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(g.config.ProductName),
	}
	if params.Description != "" {
		productData.Description = stripe.String(params.Description)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(g.config.Currency),
					UnitAmount:  stripe.Int64(MinorUnits(params.Amount)),
					ProductData: productData,
				},
			},
		},
		SuccessURL:        stripe.String(withSessionID(g.config.SuccessURL)),
		CancelURL:         stripe.String(withSessionID(g.config.CancelURL)),
		ClientReferenceID: stripe.String(rentalID),
	}
	sessionParams.AddMetadata("rental_id", rentalID)
	sessionParams.SetIdempotencyKey(uuid.NewString())

	s, err := g.breaker.Execute(func() (Session, error) {
		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		sessionParams.Context = ctx
		return toSession(g.sessions.New(sessionParams))
	})
	if err != nil {
		return Session{}, errors.Wrapf(err, "create checkout session for rental %d", params.RentalID)
	}

	g.logger.Debug("checkout session created",
		slog.String("session_id", s.ID),
		slog.Int("rental_id", params.RentalID),
	)

	return s, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (Session, error) {
	s, err := g.breaker.Execute(func() (Session, error) {
		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		return toSession(g.sessions.Get(sessionID, params))
	})
	if err != nil {
		return Session{}, errors.Wrapf(err, "get checkout session %s", sessionID)
	}

	return s, nil
}

// ExpireSession closes an open session so it can no longer be paid.
// Sessions that are already complete or expired come back as ErrRejected.
func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) (Session, error) {
	s, err := g.breaker.Execute(func() (Session, error) {
		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		params := &stripe.CheckoutSessionExpireParams{}
		params.Context = ctx
		return toSession(g.sessions.Expire(sessionID, params))
	})
	if err != nil {
		return Session{}, errors.Wrapf(err, "expire checkout session %s", sessionID)
	}

	g.logger.Debug("checkout session expired", slog.String("session_id", s.ID))
	return s, nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.config.Timeout > 0 {
		return context.WithTimeout(ctx, g.config.Timeout)
	}
	return context.WithCancel(ctx)
}

func withSessionID(rawURL string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "session_id=" + CheckoutSessionIDTemplate
}

func toSession(s *stripe.CheckoutSession, err error) (Session, error) {
	if err != nil {
		return Session{}, classify(err)
	}
	return sessionFromStripe(s)
}

func sessionFromStripe(s *stripe.CheckoutSession) (Session, error) {
	if s == nil || s.ID == "" {
		return Session{}, errors.Wrap(ErrDecode, "empty checkout session")
	}

	ref := s.Metadata["rental_id"]
	if ref == "" {
		ref = s.ClientReferenceID
	}

	rentalID, err := strconv.Atoi(ref)
	if err != nil {
		return Session{}, errors.Wrapf(ErrDecode, "session %s has no rental correlation", s.ID)
	}

	return Session{
		ID:            s.ID,
		URL:           s.URL,
		RentalID:      rentalID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
	}, nil
}

func classify(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := stripeErr.HTTPStatusCode
		if code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
			return &requestError{kind: ErrRejected, err: err}
		}
	}
	return &requestError{kind: ErrServer, err: err}
}
