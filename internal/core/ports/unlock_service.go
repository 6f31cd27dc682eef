package ports

import (
	"context"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// UnlockResult is returned after a tenant unlocks a listing's contact
// details. Replays of an existing grant set AlreadyUnlocked and return the
// original transaction.
type UnlockResult struct {
	TransactionID   string
	Amount          float64
	Status          domain.TransactionStatus
	UnlockedAt      time.Time
	AlreadyUnlocked bool
	ContactPerson   string
	ContactPhone    string
}

// UnlockService runs the contact-unlock workflow.
type UnlockService interface {
	Unlock(ctx context.Context, tenant *domain.User, propertyID string) (*UnlockResult, error)
}
