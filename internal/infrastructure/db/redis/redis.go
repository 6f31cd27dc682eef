// Package redis provides the client used by the unlock guard, the only
// Redis-backed component of the service.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config holds the connection settings for the unlock guard's Redis instance.
type Config struct {
	Addr string
	DB   int

	// DialTimeout bounds connection establishment and the startup ping.
	// Zero means defaultDialTimeout.
	DialTimeout time.Duration
}

// Connect opens a client and verifies the instance is reachable. The unlock
// guard tolerates Redis going away later, but a wrong REDIS_ADDR should fail
// at startup.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}

	return client, nil
}
