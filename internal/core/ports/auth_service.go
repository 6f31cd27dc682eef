package ports

import (
	"context"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// RegisterInput carries registration data. PhoneNumber may arrive in any of
// the accepted Kenyan formats; the service canonicalises it.
type RegisterInput struct {
	FullName    string
	PhoneNumber string
	Email       string
	IDNumber    string
	Role        string
}

// UpdateProfileInput is a partial profile update; empty fields are ignored.
type UpdateProfileInput struct {
	FullName string
	Email    string
}

// AuthResult bundles the authenticated user with a fresh bearer token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresIn time.Duration
}

// AuthService implements registration, phone-based login and profile access.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, phoneNumber string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error)
}
