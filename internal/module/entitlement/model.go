package entitlement

import (
	"time"
)

// SubscriptionStatus represents the status of a client's subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is the paid-entitlement sub-record embedded in a UsageRecord.
type Subscription struct {
	Status               SubscriptionStatus `json:"status" gorm:"column:sub_status;default:none"`
	PlanID               string             `json:"plan_id,omitempty" gorm:"column:sub_plan_id"`
	StripeSubscriptionID string             `json:"-" gorm:"column:stripe_subscription_id"`
	StripeSessionID      string             `json:"-" gorm:"column:stripe_session_id"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty" gorm:"column:sub_period_end"`
}

// IsActive returns true if the subscription grants unlimited use at t.
func (s *Subscription) IsActive(t time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(t)
}

// UsageRecord tracks generations consumed by one identity in the current
// calendar month, plus its subscription state.
type UsageRecord struct {
	Identity     string       `json:"identity" gorm:"primaryKey"`
	PeriodMonth  int          `json:"period_month" gorm:"not null"`
	PeriodYear   int          `json:"period_year" gorm:"not null"`
	Count        int          `json:"count" gorm:"not null;default:0"`
	FirstUsedAt  *time.Time   `json:"first_used_at,omitempty"`
	Subscription Subscription `json:"subscription" gorm:"embedded"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name.
func (UsageRecord) TableName() string {
	return "usage_records"
}

// NewUsageRecord creates a zero-valued record for an identity.
func NewUsageRecord(identity string, now time.Time) *UsageRecord {
	return &UsageRecord{
		Identity:    identity,
		PeriodMonth: int(now.UTC().Month()),
		PeriodYear:  now.UTC().Year(),
		Subscription: Subscription{
			Status: SubscriptionStatusNone,
		},
	}
}

// HasActiveSubscription returns true if the record grants unlimited use at t.
func (r *UsageRecord) HasActiveSubscription(t time.Time) bool {
	return r.Subscription.IsActive(t)
}

// NeedsRollover returns true if the record belongs to a past calendar month.
func (r *UsageRecord) NeedsRollover(now time.Time) bool {
	now = now.UTC()
	return r.PeriodMonth != int(now.Month()) || r.PeriodYear != now.Year()
}

// Rollover resets the counter for a new calendar month. FirstUsedAt and the
// subscription survive the reset. Returns true if anything changed.
func (r *UsageRecord) Rollover(now time.Time) bool {
	if !r.NeedsRollover(now) {
		return false
	}
	now = now.UTC()
	r.PeriodMonth = int(now.Month())
	r.PeriodYear = now.Year()
	r.Count = 0
	return true
}

// RemainingFree returns the free generations left under the given limit.
func (r *UsageRecord) RemainingFree(limit int) int {
	remaining := limit - r.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clone returns a copy safe to hand to callers while the original stays in
// the fallback map.
func (r *UsageRecord) Clone() *UsageRecord {
	c := *r
	if r.FirstUsedAt != nil {
		t := *r.FirstUsedAt
		c.FirstUsedAt = &t
	}
	if r.Subscription.CurrentPeriodEnd != nil {
		t := *r.Subscription.CurrentPeriodEnd
		c.Subscription.CurrentPeriodEnd = &t
	}
	return &c
}
