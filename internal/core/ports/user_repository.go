package ports

import (
	"context"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create inserts a new user and sets its ID. A phone-number collision
	// maps to domain.ErrUserExists, an email collision to domain.ErrEmailInUse.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)

	// EmailTaken reports whether another user (excluding excludeID) already
	// uses the email.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)

	UpdateProfile(ctx context.Context, id, fullName, email string) (*domain.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error

	// AddProperty / RemoveProperty maintain the owner's property reference
	// set with set semantics (no duplicates, removal idempotent).
	AddProperty(ctx context.Context, userID, propertyID string) error
	RemoveProperty(ctx context.Context, userID, propertyID string) error

	AddFavorite(ctx context.Context, userID, propertyID string) error
	RemoveFavorite(ctx context.Context, userID, propertyID string) error

	// AddUnlockGrant appends a completed unlock to the tenant's grant set.
	AddUnlockGrant(ctx context.Context, userID string, grant domain.UnlockGrant) error
}
