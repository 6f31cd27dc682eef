package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

func newAuthService(t *testing.T) (*AuthService, *stubUserRepo) {
	t.Helper()
	users := newStubUserRepo()
	return NewAuthService(users, "test-secret", time.Hour, discardLogger), users
}

func registerInput(overrides func(*ports.RegisterInput)) ports.RegisterInput {
	in := ports.RegisterInput{
		FullName:    "Grace Wanjiku",
		PhoneNumber: "0712345678",
		Email:       "grace@example.com",
		Role:        "landlord",
	}
	if overrides != nil {
		overrides(&in)
	}
	return in
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, users := newAuthService(t)

	res, err := svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.PhoneNumber = "+254 712 345 678"
		in.Email = "Grace@Example.COM"
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Token == "" {
		t.Error("expected a signed token")
	}
	if res.User.PhoneNumber != "0712345678" {
		t.Errorf("phone not canonicalised: %q", res.User.PhoneNumber)
	}
	if res.User.Email != "grace@example.com" {
		t.Errorf("email not lowercased: %q", res.User.Email)
	}
	if res.User.Role != domain.RoleLandlord || !res.User.IsActive {
		t.Errorf("user state wrong: %+v", res.User)
	}
	if _, err := users.FindByPhone(context.Background(), "0712345678"); err != nil {
		t.Errorf("user not persisted: %v", err)
	}
}

func TestAuthService_Register_Rejections(t *testing.T) {
	svc, _ := newAuthService(t)

	if _, err := svc.Register(context.Background(), registerInput(nil)); err != nil {
		t.Fatal(err)
	}

	// Same number in a different notation still collides.
	_, err := svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.PhoneNumber = "254712345678"
		in.Email = "other@example.com"
	}))
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	_, err = svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.PhoneNumber = "0799000111"
	}))
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Errorf("expected ErrEmailInUse, got %v", err)
	}

	_, err = svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.PhoneNumber = "12345"
	}))
	if !errors.Is(err, domain.ErrInvalidPhoneNumber) {
		t.Errorf("expected ErrInvalidPhoneNumber, got %v", err)
	}

	_, err = svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.Role = "admin"
	}))
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, users := newAuthService(t)

	if _, err := svc.Register(context.Background(), registerInput(nil)); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Login(context.Background(), "0712 345 678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" {
		t.Error("expected a signed token")
	}
	if res.User.LastLogin == nil {
		t.Error("lastLogin must be recorded")
	}

	stored, _ := users.FindByPhone(context.Background(), "0712345678")
	if stored.LastLogin == nil {
		t.Error("lastLogin must be persisted")
	}

	if _, err := svc.Login(context.Background(), "0700000000"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown phone: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "bogus"); !errors.Is(err, domain.ErrInvalidPhoneNumber) {
		t.Errorf("bad phone: expected ErrInvalidPhoneNumber, got %v", err)
	}
}

func TestAuthService_Login_Deactivated(t *testing.T) {
	svc, users := newAuthService(t)

	res, err := svc.Register(context.Background(), registerInput(nil))
	if err != nil {
		t.Fatal(err)
	}
	users.byID[res.User.ID].IsActive = false

	if _, err := svc.Login(context.Background(), "0712345678"); !errors.Is(err, domain.ErrAccountDeactivated) {
		t.Errorf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _ := newAuthService(t)

	first, err := svc.Register(context.Background(), registerInput(nil))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Register(context.Background(), registerInput(func(in *ports.RegisterInput) {
		in.PhoneNumber = "0722000111"
		in.Email = "brian@example.com"
	}))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateProfile(context.Background(), first.User.ID, ports.UpdateProfileInput{
		FullName: "Grace W. Njeri",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.FullName != "Grace W. Njeri" {
		t.Errorf("name not updated: %q", updated.FullName)
	}
	if updated.Email != "grace@example.com" {
		t.Errorf("blank email must keep the old value, got %q", updated.Email)
	}

	_, err = svc.UpdateProfile(context.Background(), first.User.ID, ports.UpdateProfileInput{
		Email: "Brian@Example.com",
	})
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Errorf("expected ErrEmailInUse, got %v", err)
	}

	// Keeping your own email is not a conflict.
	if _, err := svc.UpdateProfile(context.Background(), second.User.ID, ports.UpdateProfileInput{
		Email: "brian@example.com",
	}); err != nil {
		t.Errorf("re-submitting own email must succeed: %v", err)
	}
}
