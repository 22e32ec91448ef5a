package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/paywall/pkg/cache"
)

// DefaultDedupTTL is how long a processed delivery id is remembered. It
// outlasts the provider's retry schedule.
const DefaultDedupTTL = 72 * time.Hour

// Deduplicator remembers processed delivery ids.
type Deduplicator interface {
	// Claim records id and reports whether this is its first delivery.
	Claim(ctx context.Context, id string) (bool, error)
	// Release forgets id so a retried delivery is processed again.
	Release(ctx context.Context, id string) error
}

type nopDeduplicator struct{}

func (nopDeduplicator) Claim(context.Context, string) (bool, error) { return true, nil }
func (nopDeduplicator) Release(context.Context, string) error       { return nil }

// MemoryDeduplicator keeps delivery ids in a bounded in-process LRU. Suitable
// for a single instance.
type MemoryDeduplicator struct {
	seen *cache.LRU[string, struct{}]
}

func NewMemoryDeduplicator(capacity int, ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: cache.NewLRU[string, struct{}](capacity, ttl)}
}

func (d *MemoryDeduplicator) Claim(_ context.Context, id string) (bool, error) {
	return d.seen.Add(id, struct{}{}), nil
}

func (d *MemoryDeduplicator) Release(_ context.Context, id string) error {
	d.seen.Remove(id)
	return nil
}

// RedisDeduplicator shares delivery ids between instances using SET NX.
type RedisDeduplicator struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisDeduplicator {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &RedisDeduplicator{client: client, prefix: prefix + "webhook:", ttl: ttl}
}

func (d *RedisDeduplicator) Claim(ctx context.Context, id string) (bool, error) {
	return d.client.SetNX(ctx, d.prefix+id, time.Now().Unix(), d.ttl).Result()
}

func (d *RedisDeduplicator) Release(ctx context.Context, id string) error {
	return d.client.Del(ctx, d.prefix+id).Err()
}
