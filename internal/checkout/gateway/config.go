package gateway

import "time"

// Config is everything the Stripe client needs. It is passed to New explicitly,
// the API key is never stored in process-wide state.
type Config struct {
	APIKey           string        `konf:"api_key"`
	BaseURL          string        `konf:"base_url"`
	WebhookSecret    string        `konf:"webhook_secret"`
	WebhookTolerance time.Duration `konf:"webhook_tolerance"`
	Currency         string        `konf:"currency"`
	ProductName      string        `konf:"product_name"`
	SuccessURL       string        `konf:"success_url"`
	CancelURL        string        `konf:"cancel_url"`
	Timeout          time.Duration `konf:"timeout"`
	MaxFailures      uint32        `konf:"max_failures"`
	OpenTimeout      time.Duration `konf:"open_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://api.stripe.com",
		WebhookTolerance: 5 * time.Minute,
		Currency:         "usd",
		ProductName:      "Car Rental",
		SuccessURL:       "http://localhost:8080/api/checkout/success",
		CancelURL:        "http://localhost:8080/api/checkout/cancel",
		Timeout:          10 * time.Second,
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
	}
}
