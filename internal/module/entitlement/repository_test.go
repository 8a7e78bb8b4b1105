package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UsageRecord{}))
	return db
}

func TestGormRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing record", func(t *testing.T) {
		repo := NewRepository(newTestDB(t))

		_, err := repo.Get(ctx, "tok:missing")

		assert.ErrorIs(t, err, ErrUsageNotFound)
	})

	t.Run("save and get round trip", func(t *testing.T) {
		repo := NewRepository(newTestDB(t))
		now := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
		record := NewUsageRecord("tok:abc", now)
		record.Count = 3
		record.FirstUsedAt = &now

		require.NoError(t, repo.Save(ctx, record))
		got, err := repo.Get(ctx, "tok:abc")

		require.NoError(t, err)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, int(time.March), got.PeriodMonth)
		assert.Equal(t, 2026, got.PeriodYear)
		require.NotNil(t, got.FirstUsedAt)
		assert.True(t, got.FirstUsedAt.Equal(now))
	})

	t.Run("save upserts on identity", func(t *testing.T) {
		repo := NewRepository(newTestDB(t))
		now := time.Now().UTC()
		record := NewUsageRecord("tok:abc", now)
		require.NoError(t, repo.Save(ctx, record))

		record.Count = 4
		periodEnd := now.AddDate(0, 1, 0)
		record.Subscription = Subscription{
			Status:               SubscriptionStatusActive,
			PlanID:               "creator",
			StripeSubscriptionID: "sub_123",
			CurrentPeriodEnd:     &periodEnd,
		}
		require.NoError(t, repo.Save(ctx, record))

		got, err := repo.Get(ctx, "tok:abc")
		require.NoError(t, err)
		assert.Equal(t, 4, got.Count)
		assert.Equal(t, SubscriptionStatusActive, got.Subscription.Status)
		assert.Equal(t, "sub_123", got.Subscription.StripeSubscriptionID)
	})
}
