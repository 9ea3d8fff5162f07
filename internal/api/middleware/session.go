package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// UsersSessionGuard authenticates self-issued session tokens. Active
// only when the resolved method is users; passes through when another
// guard already attached a principal or the route is public. Every
// verification failure is the same 401: expiry, signature and shape
// are indistinguishable from outside.
func UsersSessionGuard(cfg *config.AuthConfig, routes *Routes, codec ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Method() != config.MethodUsers {
				return next(c)
			}
			if PrincipalFrom(c) != nil || routes.IsPublic(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if header == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			claims, err := codec.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			roles := claims.Roles
			if len(roles) == 0 {
				roles = []string{domain.RoleUser}
			}
			SetPrincipal(c, &domain.Principal{
				ID:    claims.Subject,
				Email: claims.Email,
				Roles: roles,
			})
			return next(c)
		}
	}
}
