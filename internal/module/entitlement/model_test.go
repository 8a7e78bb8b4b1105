package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUsageRecordRollover(t *testing.T) {
	t.Run("same month is a no-op", func(t *testing.T) {
		now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
		record := NewUsageRecord("tok:abc", now)
		record.Count = 3

		changed := record.Rollover(now.Add(24 * time.Hour))

		assert.False(t, changed)
		assert.Equal(t, 3, record.Count)
	})

	t.Run("new month resets count", func(t *testing.T) {
		first := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
		record := NewUsageRecord("tok:abc", first)
		record.Count = 5
		record.FirstUsedAt = &first

		changed := record.Rollover(time.Date(2026, time.April, 1, 0, 0, 1, 0, time.UTC))

		assert.True(t, changed)
		assert.Equal(t, 0, record.Count)
		assert.Equal(t, int(time.April), record.PeriodMonth)
		assert.Equal(t, 2026, record.PeriodYear)
		assert.Equal(t, &first, record.FirstUsedAt, "first use timestamp survives rollover")
	})

	t.Run("year boundary triggers rollover", func(t *testing.T) {
		record := NewUsageRecord("tok:abc", time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC))
		record.Count = 2

		changed := record.Rollover(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC))

		assert.True(t, changed)
		assert.Equal(t, 0, record.Count)
		assert.Equal(t, 2027, record.PeriodYear)
	})

	t.Run("subscription survives rollover", func(t *testing.T) {
		now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
		periodEnd := now.AddDate(0, 2, 0)
		record := NewUsageRecord("tok:abc", now)
		record.Subscription = Subscription{
			Status:           SubscriptionStatusActive,
			PlanID:           "creator",
			CurrentPeriodEnd: &periodEnd,
		}

		record.Rollover(now.AddDate(0, 1, 0))

		assert.True(t, record.HasActiveSubscription(now.AddDate(0, 1, 0)))
		assert.Equal(t, "creator", record.Subscription.PlanID)
	})
}

func TestSubscriptionIsActive(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active with future period end", Subscription{Status: SubscriptionStatusActive, CurrentPeriodEnd: &future}, true},
		{"active but period lapsed", Subscription{Status: SubscriptionStatusActive, CurrentPeriodEnd: &past}, false},
		{"active without period end", Subscription{Status: SubscriptionStatusActive}, false},
		{"cancelled with future period end", Subscription{Status: SubscriptionStatusCancelled, CurrentPeriodEnd: &future}, false},
		{"no subscription", Subscription{Status: SubscriptionStatusNone}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActive(now))
		})
	}
}

func TestUsageRecordRemainingFree(t *testing.T) {
	record := NewUsageRecord("tok:abc", time.Now())

	assert.Equal(t, 5, record.RemainingFree(5))

	record.Count = 4
	assert.Equal(t, 1, record.RemainingFree(5))

	record.Count = 7
	assert.Equal(t, 0, record.RemainingFree(5), "never negative")
}

func TestUsageRecordClone(t *testing.T) {
	now := time.Now().UTC()
	record := NewUsageRecord("tok:abc", now)
	record.FirstUsedAt = &now

	c := record.Clone()
	c.Count = 99
	*c.FirstUsedAt = now.Add(time.Hour)

	assert.Equal(t, 0, record.Count)
	assert.Equal(t, now, *record.FirstUsedAt)
}
