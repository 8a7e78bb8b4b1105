package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterTTL = 40 * 24 * time.Hour

// CounterCache mirrors per-identity monthly counters in Redis so a fresh
// process can recover approximate counts while the database is unavailable.
type CounterCache struct {
	client redis.UniversalClient
}

// NewCounterCache creates a Redis-backed counter mirror. A nil client
// disables the cache.
func NewCounterCache(client redis.UniversalClient) *CounterCache {
	return &CounterCache{client: client}
}

func counterKey(identity string, now time.Time) string {
	return fmt.Sprintf("quota:gen:%s:%s", identity, now.UTC().Format("2006-01"))
}

// Incr bumps the counter for the current calendar month.
func (c *CounterCache) Incr(ctx context.Context, identity string, now time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}
	key := counterKey(identity, now)
	pipe := c.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the mirrored count for the current calendar month. A missing
// key reads as zero.
func (c *CounterCache) Get(ctx context.Context, identity string, now time.Time) (int, error) {
	if c == nil || c.client == nil {
		return 0, redis.Nil
	}
	n, err := c.client.Get(ctx, counterKey(identity, now)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
