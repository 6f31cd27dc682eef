// Package mongo holds the repositories backing the marketplace: accounts,
// listings and the unlock transaction ledger all share the database handle
// created here.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds every repository operation, and the initial dial when
// the caller sets no timeout of its own.
const defaultTimeout = 10 * time.Second

// Config holds the connection settings for the marketplace database.
type Config struct {
	URI      string
	Database string

	// Timeout bounds the dial and the startup ping. Zero means defaultTimeout.
	Timeout time.Duration
}

// Connect dials the marketplace database and pings the primary before handing
// out the client, so a bad MONGO_URI fails at startup rather than on the
// first request.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %q: %w", cfg.Database, err)
	}

	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping %q: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}
