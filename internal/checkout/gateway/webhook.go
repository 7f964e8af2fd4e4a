package gateway

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	ErrInvalidSignature GatewayError = "invalid webhook signature"
	ErrStaleSignature   GatewayError = "webhook signature timestamp outside tolerance"
)

const (
	EventSessionCompleted           = string(stripe.EventTypeCheckoutSessionCompleted)
	EventSessionAsyncPaymentSucceed = string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded)
	EventSessionAsyncPaymentFailed  = string(stripe.EventTypeCheckoutSessionAsyncPaymentFailed)
	EventSessionExpired             = string(stripe.EventTypeCheckoutSessionExpired)
)

type Event struct {
	ID      string
	Type    string
	Session Session
}

// IsCheckoutSession reports whether the event carries a checkout session object.
func (e Event) IsCheckoutSession() bool {
	return strings.HasPrefix(e.Type, "checkout.session.")
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
// Events rendered with another API version are accepted: only the session fields are read.
func (g *StripeGateway) ParseEvent(payload []byte, sigHeader string) (Event, error) {
	if g.config.WebhookSecret == "" {
		return Event{}, ErrInvalidSignature
	}

	raw, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.config.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                g.config.WebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrTooOld):
			return Event{}, ErrStaleSignature
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature):
			return Event{}, ErrInvalidSignature
		default:
			return Event{}, errors.Wrap(ErrDecode, err.Error())
		}
	}

	event := Event{ID: raw.ID, Type: string(raw.Type)}
	if !event.IsCheckoutSession() {
		return event, nil
	}
	if raw.Data == nil {
		return Event{}, errors.Wrap(ErrDecode, "checkout event without data")
	}

	var s stripe.CheckoutSession
	if err = json.Unmarshal(raw.Data.Raw, &s); err != nil {
		return Event{}, errors.Wrap(ErrDecode, err.Error())
	}

	event.Session, err = sessionFromStripe(&s)
	if err != nil {
		return Event{}, err
	}

	return event, nil
}
