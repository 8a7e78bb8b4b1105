// Package quota decides whether an identity may run a generation.
package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/podnotes/server/internal/module/entitlement"
	"github.com/podnotes/server/internal/shared/metrics"
)

// DefaultFreeLimit is the free generations allowed per calendar month.
const DefaultFreeLimit = 5

// Decision is the outcome of an authorization check.
type Decision struct {
	// Allowed reports whether the generation may proceed.
	Allowed bool `json:"allowed"`

	// Remaining is the free generations left this month. Zero when the
	// identity is subscribed; check Unlimited instead.
	Remaining int `json:"remaining"`

	// Unlimited is true when an active subscription bypasses the limit.
	Unlimited bool `json:"unlimited"`
}

// Gate enforces the monthly free limit with a subscription bypass.
// Authorization never consumes quota; call RecordSuccess after the
// generation actually succeeds.
type Gate struct {
	store     *entitlement.Store
	freeLimit int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewGate creates a quota gate. A non-positive freeLimit falls back to
// DefaultFreeLimit. m may be nil.
func NewGate(store *entitlement.Store, freeLimit int, logger *zap.Logger, m *metrics.Metrics) *Gate {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeLimit
	}
	return &Gate{
		store:     store,
		freeLimit: freeLimit,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Usage returns the identity's current usage record without consuming
// anything.
func (g *Gate) Usage(ctx context.Context, identity string) *entitlement.UsageRecord {
	return g.store.GetUsage(ctx, identity)
}

// FreeLimit returns the configured monthly free limit.
func (g *Gate) FreeLimit() int {
	return g.freeLimit
}

// Authorize checks whether the identity may run a generation right now.
// Subscribed identities are always allowed regardless of their counter.
func (g *Gate) Authorize(ctx context.Context, identity string) Decision {
	record := g.store.GetUsage(ctx, identity)
	now := g.now()

	if record.HasActiveSubscription(now) {
		return Decision{Allowed: true, Unlimited: true}
	}

	remaining := record.RemainingFree(g.freeLimit)
	if remaining <= 0 {
		if g.metrics != nil {
			g.metrics.QuotaDenialsTotal.Inc()
		}
		g.logger.Info("generation denied, free limit reached",
			zap.String("identity", identity),
			zap.Int("count", record.Count),
			zap.Int("limit", g.freeLimit),
		)
		return Decision{Allowed: false, Remaining: 0}
	}

	return Decision{Allowed: true, Remaining: remaining}
}

// RecordSuccess consumes one unit of quota after a successful generation.
// Subscribed identities are not counted. Returns the decision a subsequent
// Authorize would make, so handlers can report the new remaining balance.
func (g *Gate) RecordSuccess(ctx context.Context, identity string) Decision {
	record := g.store.GetUsage(ctx, identity)
	if record.HasActiveSubscription(g.now()) {
		return Decision{Allowed: true, Unlimited: true}
	}

	record = g.store.IncrementUsage(ctx, identity)
	remaining := record.RemainingFree(g.freeLimit)
	return Decision{Allowed: remaining > 0, Remaining: remaining}
}
