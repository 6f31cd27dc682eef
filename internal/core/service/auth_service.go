package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
	"github.com/nyumbaconnect/rental-api/internal/pkg/phone"
)

// AuthService implements phone-number-keyed registration and login.
type AuthService struct {
	users     ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 720 * time.Hour
	}
	return &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	role := domain.UserRole(input.Role)
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	formatted, ok := phone.Normalize(input.PhoneNumber)
	if !ok {
		return nil, domain.ErrInvalidPhoneNumber
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.FindByPhone(ctx, formatted); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if email != "" {
		taken, err := s.users.EmailTaken(ctx, email, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrEmailInUse
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		FullName:    strings.TrimSpace(input.FullName),
		PhoneNumber: formatted,
		Email:       email,
		Role:        role,
		IDNumber:    strings.TrimSpace(input.IDNumber),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return &ports.AuthResult{User: user, Token: token, ExpiresIn: s.tokenTTL}, nil
}

// Login authenticates by phone number alone; accounts carry no password
// credential.
func (s *AuthService) Login(ctx context.Context, phoneNumber string) (*ports.AuthResult, error) {
	formatted, ok := phone.Normalize(phoneNumber)
	if !ok {
		return nil, domain.ErrInvalidPhoneNumber
	}

	user, err := s.users.FindByPhone(ctx, formatted)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	now := time.Now().UTC()
	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	user.LastLogin = &now

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResult{User: user, Token: token, ExpiresIn: s.tokenTTL}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fullName = user.FullName
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		email = user.Email
	} else if email != user.Email {
		taken, err := s.users.EmailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrEmailInUse
		}
	}

	return s.users.UpdateProfile(ctx, userID, fullName, email)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
