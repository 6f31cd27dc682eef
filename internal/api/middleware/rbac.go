package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// RequireRole enforces role-based access on routes behind Auth: anonymous
// requests get 401, authenticated requests with the wrong role get 403.
func RequireRole(allowedRoles ...domain.UserRole) echo.MiddlewareFunc {
	allowed := make(map[domain.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewer, _ := c.Get(viewerKey).(domain.Viewer)
			if !viewer.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			if _, ok := allowed[viewer.User.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
