package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, phoneNumber string) (*ports.AuthResult, error)
	profileFn  func(ctx context.Context, userID string) (*domain.User, error)
	updateFn   func(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, input)
}
func (s *stubAuthService) Login(ctx context.Context, phoneNumber string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, phoneNumber)
}
func (s *stubAuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}
func (s *stubAuthService) UpdateProfile(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, userID, input)
}

func registeredTenant() *domain.User {
	return &domain.User{
		ID:          "user_1",
		FullName:    "Brian Otieno",
		PhoneNumber: "0722000111",
		Role:        domain.RoleTenant,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
			if input.PhoneNumber != "+254722000111" || input.Role != "tenant" {
				t.Fatalf("input not threaded: %+v", input)
			}
			return &ports.AuthResult{User: registeredTenant(), Token: "jwt-token", ExpiresIn: time.Hour}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"fullName":"Brian Otieno","phoneNumber":"+254722000111","userType":"tenant"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	data := resp["data"].(map[string]any)
	if data["token"] != "jwt-token" {
		t.Fatalf("token missing: %+v", data)
	}
	if data["expiresIn"] != float64(3600) {
		t.Fatalf("expiresIn not in seconds: %+v", data)
	}
	user := data["user"].(map[string]any)
	if user["phoneNumber"] != "0722000111" || user["userType"] != "tenant" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{not json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Register_MissingUserType(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, _ ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"fullName":"Brian Otieno","phoneNumber":"0722000111"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, phoneNumber string) (*ports.AuthResult, error) {
			if phoneNumber != "0722000111" {
				t.Fatalf("phone not threaded: %q", phoneNumber)
			}
			return &ports.AuthResult{User: registeredTenant(), Token: "jwt-token", ExpiresIn: time.Hour}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"phoneNumber":"0722000111"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_UnknownUserPassesErrorThrough(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, _ string) (*ports.AuthResult, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"phoneNumber":"0722000111"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != domain.ErrUserNotFound {
		t.Fatalf("expected domain error returned for the central handler, got %v", err)
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		profileFn: func(_ context.Context, userID string) (*domain.User, error) {
			if userID != "user_1" {
				t.Fatalf("wrong user id: %q", userID)
			}
			return registeredTenant(), nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("viewer", domain.Viewer{User: registeredTenant()})

	if err := handler.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"fullName":"Brian Otieno"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		updateFn: func(_ context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
			if input.Email != "brian@example.com" {
				t.Fatalf("email not threaded: %+v", input)
			}
			u := registeredTenant()
			u.Email = input.Email
			return u, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"email":"brian@example.com"}`)
	req := httptest.NewRequest(http.MethodPut, "/auth/profile", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("viewer", domain.Viewer{User: registeredTenant()})

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"email":"brian@example.com"`) {
		t.Fatalf("updated email missing: %s", rec.Body.String())
	}
}
