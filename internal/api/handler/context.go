package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// viewerFrom extracts the viewer injected by the auth middlewares. Routes
// without any auth middleware see the anonymous viewer.
func viewerFrom(c echo.Context) domain.Viewer {
	viewer, _ := c.Get("viewer").(domain.Viewer)
	return viewer
}

// requireUser fast-fails routes that must run behind Auth: a missing viewer
// means the middleware chain is miswired or the token never resolved.
func requireUser(c echo.Context) (*domain.User, error) {
	viewer := viewerFrom(c)
	if !viewer.Authenticated() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return viewer.User, nil
}
