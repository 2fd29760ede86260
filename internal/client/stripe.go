package client

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeVerifier checks the Stripe-Signature header against the endpoint
// secret and decodes the event envelope.
type StripeVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// ErrNoWebhookSecret rejects every event while no endpoint secret is set.
var ErrNoWebhookSecret = errors.New("stripe webhook secret is not configured")

type stripeVerifierImpl struct {
	secret    string
	tolerance time.Duration
}

func NewStripeVerifier(secret string, tolerance time.Duration) StripeVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &stripeVerifierImpl{secret: secret, tolerance: tolerance}
}

func (v *stripeVerifierImpl) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, ErrNoWebhookSecret
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}
