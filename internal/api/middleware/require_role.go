package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles enforces the RequiredRoles declared in the route table.
// It runs after the guards: a missing principal on a role-gated route
// is a 401, a principal without any of the listed roles is a 403.
func RequireRoles(routes *Routes) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			meta := routes.Meta(c)
			if meta.Public || len(meta.RequiredRoles) == 0 {
				return next(c)
			}

			p := PrincipalFrom(c)
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, role := range meta.RequiredRoles {
				if p.HasRole(role) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
		}
	}
}
