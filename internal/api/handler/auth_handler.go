package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	FullName    string `json:"fullName"    validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Email       string `json:"email"       validate:"omitempty,email"`
	IDNumber    string `json:"idNumber"`
	UserType    string `json:"userType"    validate:"required,oneof=landlord tenant agent"`
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type userResponse struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email,omitempty"`
	UserType    string     `json:"userType"`
	IsVerified  bool       `json:"isVerified"`
	IsActive    bool       `json:"isActive"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      userResponse `json:"user"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		UserType:    string(u.Role),
		IsVerified:  u.IsVerified,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

// Register creates a new account keyed by phone number.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		IDNumber:    req.IDNumber,
		Role:        req.UserType,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, apiResponse{Success: true, Message: "registration successful", Data: authResponse{
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
		User:      toUserResponse(result.User),
	}})
}

// Login authenticates by phone number and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login phone number"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: "login successful", Data: authResponse{
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
		User:      toUserResponse(result.User),
	}})
}

// Profile returns the authenticated user's account.
//
// @Summary      Get own profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  map[string]any
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	fresh, err := h.authService.Profile(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: toUserResponse(fresh)})
}

// UpdateProfile changes the account's name and/or email. Phone numbers are
// immutable.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  apiResponse
// @Failure      409   {object}  map[string]any
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.authService.UpdateProfile(c.Request().Context(), user.ID, ports.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: "profile updated", Data: toUserResponse(updated)})
}
