package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardTTL = 30 * time.Second

// UnlockGuard serialises concurrent unlock attempts per (tenant, property)
// pair with a short-lived SETNX slot.
// Key format: unlock:<tenant_id>:<property_id>
type UnlockGuard struct {
	client *redis.Client
}

// NewUnlockGuard creates an UnlockGuard wrapping the given Redis client.
func NewUnlockGuard(client *redis.Client) *UnlockGuard {
	return &UnlockGuard{client: client}
}

// Acquire claims the slot for the pair. It returns false when another attempt
// currently holds it. The TTL bounds how long a crashed attempt can block
// retries.
func (g *UnlockGuard) Acquire(ctx context.Context, tenantID, propertyID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(tenantID, propertyID), "1", guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("unlock guard acquire: %w", err)
	}
	return ok, nil
}

// Release frees the slot so a failed attempt can be retried immediately.
func (g *UnlockGuard) Release(ctx context.Context, tenantID, propertyID string) error {
	return g.client.Del(ctx, g.key(tenantID, propertyID)).Err()
}

func (g *UnlockGuard) key(tenantID, propertyID string) string {
	return fmt.Sprintf("unlock:%s:%s", tenantID, propertyID)
}
