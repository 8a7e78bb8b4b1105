package payment

import (
	"time"

	"github.com/lib/pq"
)

// Plan is a purchasable subscription plan.
type Plan struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description"`
	PriceCents    int64          `json:"price_cents" gorm:"not null"`
	Currency      string         `json:"currency" gorm:"not null;default:eur"`
	Interval      string         `json:"interval" gorm:"not null;default:month"`
	StripePriceID string         `json:"-" gorm:"column:stripe_price_id"`
	Features      pq.StringArray `json:"features" gorm:"type:text[]"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Plan) TableName() string {
	return "plans"
}

// DefaultPlans returns the seed plans. priceIDs maps plan ID to the Stripe
// price configured for the environment.
func DefaultPlans(priceIDs map[string]string) []Plan {
	return []Plan{
		{
			ID:            "creator",
			Name:          "Creator",
			Description:   "For podcasters publishing every week",
			PriceCents:    900,
			Currency:      "eur",
			Interval:      "month",
			StripePriceID: priceIDs["creator"],
			Features: pq.StringArray{
				"Unlimited show notes generations",
				"Social media content",
				"All tone presets",
			},
		},
		{
			ID:            "pro",
			Name:          "Pro",
			Description:   "For networks and production teams",
			PriceCents:    1500,
			Currency:      "eur",
			Interval:      "month",
			StripePriceID: priceIDs["pro"],
			Features: pq.StringArray{
				"Everything in Creator",
				"Priority generation",
				"Email support",
			},
		},
	}
}

// CheckoutSession status values.
const (
	SessionStatusCreated  = "created"
	SessionStatusVerified = "verified"
)

// CheckoutSession records a checkout session we created, so webhook events
// can be traced back to the identity that started the purchase.
type CheckoutSession struct {
	SessionID            string    `json:"session_id" gorm:"primaryKey"`
	Identity             string    `json:"identity" gorm:"index;not null"`
	PlanID               string    `json:"plan_id" gorm:"not null"`
	Status               string    `json:"status" gorm:"not null;default:created"`
	StripeSubscriptionID string    `json:"-" gorm:"index"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

// WebhookEvent records a processed provider webhook for idempotency.
type WebhookEvent struct {
	EventID   string    `gorm:"primaryKey"`
	Type      string    `gorm:"not null"`
	Payload   string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the database table name.
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
