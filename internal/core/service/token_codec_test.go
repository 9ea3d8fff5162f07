package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour, zerolog.Nop())

	token, err := codec.Sign(ports.SessionClaims{
		Subject: "user-1",
		Email:   "a@example.com",
		Roles:   []string{"admin"},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
}

func TestTokenCodec_DefaultsRolesToUser(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour, zerolog.Nop())

	token, err := codec.Sign(ports.SessionClaims{Subject: "user-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != domain.RoleUser {
		t.Fatalf("expected default user role, got %v", claims.Roles)
	}
}

// Expired, tampered and malformed tokens must all fail with the same
// error: the caller cannot learn which check rejected the token.
func TestTokenCodec_FailuresAreUniform(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour, zerolog.Nop())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongKeyToken, err := wrongKey.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign wrong key: %v", err)
	}

	for name, token := range map[string]string{
		"expired":     expiredToken,
		"wrong key":   wrongKeyToken,
		"malformed":   "not-a-token",
		"empty":       "",
		"missing sub": mustSign(t, []byte("secret"), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
	} {
		if _, err := codec.Verify(token); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func mustSign(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
