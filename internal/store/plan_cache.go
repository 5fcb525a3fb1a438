/**
 * @description
 * Redis-backed cache for subscription plan lookups by provider id. The
 * webhook stream joins every event through third_party_id, so the plan
 * row is the hottest read in the service. The cache is strictly optional:
 * a nil *RedisPlanCache disables caching and every method is a no-op.
 */
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/transfa/billing-service/internal/domain"
)

// RedisPlanCache caches plans as JSON under "<prefix>:plan:<providerID>".
type RedisPlanCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisPlanCache creates a plan cache with the given key prefix and TTL.
func NewRedisPlanCache(client *redis.Client, prefix string, ttl time.Duration) *RedisPlanCache {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "billing"
	}
	return &RedisPlanCache{client: client, prefix: trimmed, ttl: ttl}
}

func (c *RedisPlanCache) key(providerID string) string {
	return c.prefix + ":plan:" + providerID
}

// Get returns the cached plan, if any. Cache errors degrade to a miss.
func (c *RedisPlanCache) Get(ctx context.Context, providerID string) (*domain.SubscriptionPlan, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(providerID)).Bytes()
	if err != nil {
		return nil, false
	}
	var plan domain.SubscriptionPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

// Set stores the plan. Failures are ignored; the database remains the
// source of truth.
func (c *RedisPlanCache) Set(ctx context.Context, plan *domain.SubscriptionPlan) {
	if c == nil || c.client == nil || plan == nil {
		return
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(plan.ProviderID), data, c.ttl)
}

// Invalidate drops the cached plan for a provider id.
func (c *RedisPlanCache) Invalidate(ctx context.Context, providerID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, c.key(providerID))
}
