package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tenantgrid/authd/internal/api/middleware"
	"github.com/tenantgrid/authd/internal/core/domain"
)

// ctxPrincipal extracts the principal attached by whichever guard ran.
// Handlers that mutate tenant data call this first: a request that
// slipped past the guards without a principal is rejected here.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}
