package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// ErrNoAPIKey is returned at construction when the api-key method is
// selected without a configured key. This is a deployment error, not a
// per-request condition.
var ErrNoAPIKey = errors.New("api-key authentication selected but STATIC_API_KEY is not configured")

// APIKeyGuard validates the static API key and synthesises the fixed
// admin principal. Active only when the resolved method is api-key.
// Missing header, malformed header, unknown scheme and wrong key all
// produce the same 401 so the response is not an oracle.
func APIKeyGuard(cfg *config.AuthConfig, routes *Routes) (echo.MiddlewareFunc, error) {
	if cfg.Method() == config.MethodAPIKey && cfg.StaticAPIKey == "" {
		return nil, ErrNoAPIKey
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Method() != config.MethodAPIKey {
				return next(c)
			}
			if routes.IsPublic(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			parts := strings.Fields(header)
			if len(parts) != 2 {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			scheme := parts[0]
			if !strings.EqualFold(scheme, "bearer") && !strings.EqualFold(scheme, "apikey") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(cfg.StaticAPIKey)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			SetPrincipal(c, domain.APIKeyPrincipal())
			return next(c)
		}
	}, nil
}
