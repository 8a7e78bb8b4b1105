package entitlement

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/podnotes/server/internal/shared/metrics"
)

// Store is the entitlement store. Reads and writes go to the durable
// repository; when it is unreachable the store degrades to a per-process
// in-memory map (seeded from the Redis counter mirror when available) so
// callers never see a storage error. Counts may diverge across processes
// during an outage, which is acceptable for a free-tier limiter.
type Store struct {
	repo     Repository
	counters *CounterCache
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	fallback map[string]*UsageRecord
}

// NewStore creates an entitlement store. counters and m may be nil.
func NewStore(repo Repository, counters *CounterCache, logger *zap.Logger, m *metrics.Metrics) *Store {
	return &Store{
		repo:     repo,
		counters: counters,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		fallback: make(map[string]*UsageRecord),
	}
}

// GetUsage returns the usage record for an identity, applying the calendar
// month rollover if the stored record belongs to a past month. It never
// returns an error; on storage failure it serves the fallback copy.
func (s *Store) GetUsage(ctx context.Context, identity string) *UsageRecord {
	return s.load(ctx, identity).Clone()
}

// IncrementUsage bumps the identity's counter for the current month and
// stamps FirstUsedAt on the first use. Persistence failures are logged and
// absorbed by the fallback map.
func (s *Store) IncrementUsage(ctx context.Context, identity string) *UsageRecord {
	record := s.load(ctx, identity)
	now := s.now()
	record.Count++
	if record.FirstUsedAt == nil {
		t := now.UTC()
		record.FirstUsedAt = &t
	}
	s.persist(ctx, record)
	if err := s.counters.Incr(ctx, identity, now); err != nil {
		s.logger.Warn("counter mirror increment failed",
			zap.String("identity", identity),
			zap.Error(err))
	}
	return record.Clone()
}

// SetSubscription replaces the subscription state on the identity's record.
func (s *Store) SetSubscription(ctx context.Context, identity string, sub Subscription) *UsageRecord {
	record := s.load(ctx, identity)
	record.Subscription = sub
	s.persist(ctx, record)
	return record.Clone()
}

// load fetches the record, preferring the repository and falling back to the
// in-memory map. The caller receives the fallback map's own entry; every
// load path ends with the record cached there.
func (s *Store) load(ctx context.Context, identity string) *UsageRecord {
	now := s.now()
	record, err := s.repo.Get(ctx, identity)
	switch {
	case err == nil:
		if record.Rollover(now) {
			s.persist(ctx, record)
		}
	case err == ErrUsageNotFound:
		record = NewUsageRecord(identity, now)
	default:
		if s.metrics != nil {
			s.metrics.EntitlementFallbackTotal.Inc()
		}
		s.logger.Error("usage record read failed, serving fallback",
			zap.String("identity", identity),
			zap.Error(err))
		record = s.recoverRecord(ctx, identity, now)
	}

	s.mu.Lock()
	s.fallback[identity] = record
	s.mu.Unlock()
	return record
}

// recoverRecord rebuilds a record without the database. It prefers the copy
// already in the fallback map, then the Redis counter mirror, then zero.
func (s *Store) recoverRecord(ctx context.Context, identity string, now time.Time) *UsageRecord {
	s.mu.RLock()
	cached, ok := s.fallback[identity]
	s.mu.RUnlock()
	if ok {
		cached.Rollover(now)
		return cached
	}

	record := NewUsageRecord(identity, now)
	if count, err := s.counters.Get(ctx, identity, now); err == nil && count > 0 {
		record.Count = count
	}
	return record
}

func (s *Store) persist(ctx context.Context, record *UsageRecord) {
	if err := s.repo.Save(ctx, record); err != nil {
		if s.metrics != nil {
			s.metrics.EntitlementFallbackTotal.Inc()
		}
		s.logger.Error("usage record write failed, keeping in-memory copy",
			zap.String("identity", record.Identity),
			zap.Error(err))
	}
}
