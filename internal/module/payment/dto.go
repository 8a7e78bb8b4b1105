package payment

// CreateCheckoutSessionRequest starts a subscription checkout. Either the
// plan ID or a Stripe price ID identifies the plan.
type CreateCheckoutSessionRequest struct {
	PlanID  string `json:"planId"`
	PriceID string `json:"priceId"`
}

// CheckoutSessionResponse carries the hosted checkout URL for redirect.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// VerifySubscriptionRequest asks the server to confirm a completed checkout.
type VerifySubscriptionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// SubscriptionInfo is the subscription summary returned after verification.
type SubscriptionInfo struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Plan             string `json:"plan"`
}

// VerifySubscriptionResponse is the body of POST /verify-subscription.
type VerifySubscriptionResponse struct {
	Success      bool              `json:"success"`
	Subscription *SubscriptionInfo `json:"subscription"`
}

// PlansResponse is the body of GET /api/plans.
type PlansResponse struct {
	Plans []Plan `json:"plans"`
}
