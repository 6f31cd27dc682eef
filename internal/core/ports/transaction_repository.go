package ports

import (
	"context"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// TransactionRepository defines persistence for the unlock ledger.
type TransactionRepository interface {
	// Create inserts a new transaction (normally status=pending) and sets
	// its ID.
	Create(ctx context.Context, tx *domain.Transaction) error

	// MarkCompleted transitions a transaction to completed. The storage
	// layer enforces at most one completed transaction per (tenant,
	// property); a violation maps to domain.ErrAlreadyUnlocked.
	MarkCompleted(ctx context.Context, id, receipt string, at time.Time) error

	MarkFailed(ctx context.Context, id, reason string) error

	// FindCompleted returns the completed transaction for the pair, or
	// domain.ErrTransactionNotFound.
	FindCompleted(ctx context.Context, tenantID, propertyID string) (*domain.Transaction, error)
}
