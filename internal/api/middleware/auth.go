package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// viewerKey is the context key the auth middlewares store the resolved
// viewer under. Handlers read it through handler.viewerFrom.
const viewerKey = "viewer"

// UserLoader resolves a token's user_id claim to a full account.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer token, loads the account it names and injects it
// as the request viewer. Deactivated accounts are rejected.
func Auth(jwtSecret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := resolveUser(c, jwtSecret, users)
			if err != nil {
				return err
			}
			c.Set(viewerKey, domain.Viewer{User: user})
			return next(c)
		}
	}
}

// OptionalAuth resolves the viewer when a valid bearer token is present and
// continues anonymously otherwise. It never rejects the request.
func OptionalAuth(jwtSecret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user, err := resolveUser(c, jwtSecret, users); err == nil {
				c.Set(viewerKey, domain.Viewer{User: user})
			} else {
				c.Set(viewerKey, domain.Anonymous)
			}
			return next(c)
		}
	}
}

func resolveUser(c echo.Context, jwtSecret string, users UserLoader) (*domain.User, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	user, err := users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
	}
	if !user.IsActive {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
	}

	return user, nil
}
