package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// OIDCVerifier checks inbound bearer tokens against the Keycloak JWKS
// and stores the raw claims for the sync guard. A request without an
// Authorization header passes through untouched; whether it survives
// depends on the downstream guards and the route's metadata.
func OIDCVerifier(cfg *config.AuthConfig, jwksURL string, log zerolog.Logger) (echo.MiddlewareFunc, error) {
	var jwks *keyfunc.JWKS
	if jwksURL != "" {
		var err error
		jwks, err = keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Method() != config.MethodKeycloak || jwks == nil {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, jwks.Keyfunc)
			if err != nil || !tkn.Valid {
				log.Debug().Err(err).Msg("oidc token rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			SetRawClaims(c, map[string]any(claims))
			return next(c)
		}
	}, nil
}
