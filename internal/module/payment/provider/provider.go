// Package provider abstracts the payment provider behind a neutral
// interface so the payment service can be tested without Stripe.
package provider

import "context"

// CheckoutParams describes a subscription checkout to create.
type CheckoutParams struct {
	PriceID    string
	Identity   string
	PlanID     string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a provider checkout session.
type CheckoutSession struct {
	ID             string
	URL            string
	PaymentStatus  string
	SubscriptionID string
	Metadata       map[string]string
}

// Paid reports whether the session's payment went through.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// Subscription is a provider subscription.
type Subscription struct {
	ID               string
	Status           string
	CurrentPeriodEnd int64
	PriceID          string
	PriceNickname    string
}

// Active reports whether the provider considers the subscription active.
func (s *Subscription) Active() bool {
	return s.Status == "active"
}

// Provider is the payment provider used for subscription checkout.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// CreateCheckoutSession creates a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a checkout session by ID.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// GetSubscription retrieves a subscription by ID.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// VerifyWebhookSignature verifies a webhook payload signature.
	VerifyWebhookSignature(payload []byte, signature string) error
}
