package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

// InsecureDefaultSecret is the fallback signing secret. Deployments must
// override it; the constructor logs a warning when it is in use.
const InsecureDefaultSecret = "insecure-dev-secret"

const defaultSessionTTL = 7 * 24 * time.Hour

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration, log zerolog.Logger) *TokenCodec {
	if secret == "" || secret == InsecureDefaultSecret {
		log.Warn().Msg("JWT_SECRET not set, using insecure default; do not run this in production")
		secret = InsecureDefaultSecret
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Sign issues a session token for the given claims.
func (tc *TokenCodec) Sign(claims ports.SessionClaims) (string, error) {
	roles := claims.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.Subject,
		"email": claims.Email,
		"roles": roles,
		"exp":   time.Now().Add(tc.ttl).Unix(),
	})
	signed, err := t.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Every failure collapses to
// ErrInvalidCredentials so callers cannot distinguish expiry from a bad
// signature.
func (tc *TokenCodec) Verify(token string) (*ports.SessionClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return tc.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrInvalidCredentials
	}
	email, _ := claims["email"].(string)

	var roles []string
	if raw, ok := claims["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &ports.SessionClaims{Subject: sub, Email: email, Roles: roles}, nil
}
