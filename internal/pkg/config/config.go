package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=720h"`

	// UnlockFee is the flat amount (KES) charged to unlock a listing's
	// contact details.
	UnlockFee float64 `env:"UNLOCK_FEE, default=50"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rental_marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Production reports whether the service runs in production mode. Logging
// switches from pretty console output to JSON when true.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables and validates the
// fields the service cannot run without.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	if cfg.UnlockFee < 0 {
		return nil, errors.New("config: UNLOCK_FEE must not be negative")
	}

	return &cfg, nil
}
