package events

import "time"

// Subscription event type constants.
const (
	SubscriptionActivatedType   = "SubscriptionActivated"
	SubscriptionDeactivatedType = "SubscriptionDeactivated"
)

// SubscriptionActivatedEvent is emitted when a checkout session is verified
// paid or a subscription webhook reports an active subscription.
// Defined here to avoid cyclic imports between payment and entitlement.
type SubscriptionActivatedEvent struct {
	BaseEvent

	// Identity is the client identity the subscription belongs to.
	Identity string `json:"identity"`

	// SubscriptionID is the provider's subscription identifier.
	SubscriptionID string `json:"subscription_id"`

	// SessionID is the checkout session that produced the subscription,
	// empty for webhook-driven renewals.
	SessionID string `json:"session_id,omitempty"`

	// PlanID is the internal plan identifier.
	PlanID string `json:"plan_id"`

	// CurrentPeriodEnd is when the paid period expires.
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

// NewSubscriptionActivatedEvent creates a new SubscriptionActivatedEvent.
func NewSubscriptionActivatedEvent(identity, subscriptionID, sessionID, planID string, periodEnd time.Time) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseEvent:        NewBaseEvent(SubscriptionActivatedType, identity, "Subscription"),
		Identity:         identity,
		SubscriptionID:   subscriptionID,
		SessionID:        sessionID,
		PlanID:           planID,
		CurrentPeriodEnd: periodEnd,
	}
}

// SubscriptionDeactivatedEvent is emitted when a subscription is cancelled
// or expires upstream.
type SubscriptionDeactivatedEvent struct {
	BaseEvent

	// Identity is the client identity the subscription belonged to.
	Identity string `json:"identity"`

	// SubscriptionID is the provider's subscription identifier.
	SubscriptionID string `json:"subscription_id"`

	// Status is the terminal provider status (e.g., "canceled").
	Status string `json:"status"`
}

// NewSubscriptionDeactivatedEvent creates a new SubscriptionDeactivatedEvent.
func NewSubscriptionDeactivatedEvent(identity, subscriptionID, status string) *SubscriptionDeactivatedEvent {
	return &SubscriptionDeactivatedEvent{
		BaseEvent:      NewBaseEvent(SubscriptionDeactivatedType, identity, "Subscription"),
		Identity:       identity,
		SubscriptionID: subscriptionID,
		Status:         status,
	}
}
