package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/tenantgrid/authd/internal/core/domain"
)

const (
	principalKey = "auth.principal"
	claimsKey    = "auth.oidc_claims"
)

// SetPrincipal attaches the resolved identity to the request. Guards
// call this exactly once per request; later guards detect the attached
// principal and pass through.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the request principal, or nil when no guard
// has authenticated the request.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// SetRawClaims stores the verified-but-unmapped OIDC token payload for
// the Keycloak sync guard to consume.
func SetRawClaims(c echo.Context, claims map[string]any) {
	c.Set(claimsKey, claims)
}

// RawClaimsFrom returns the raw OIDC claims attached by the upstream
// verifier, or nil.
func RawClaimsFrom(c echo.Context) map[string]any {
	claims, _ := c.Get(claimsKey).(map[string]any)
	return claims
}
