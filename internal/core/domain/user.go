package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether r is one of the two recognised roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleUser
}

// User models an account. A user authenticates via exactly one active path:
// either PasswordHash is set (local auth) or KeycloakSubject is set
// (federated); both may coexist only transiently while an existing local
// account is being linked to a federated identity.
type User struct {
	ID                         string     `json:"id"`
	Email                      string     `json:"email"`
	PasswordHash               string     `json:"-"`
	Role                       string     `json:"role"`
	EmailConfirmedAt           *time.Time `json:"email_confirmed_at,omitempty"`
	EmailConfirmationTokenHash string     `json:"-"`
	PasswordResetTokenHash     string     `json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	KeycloakSubject            string     `json:"-"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// Confirmed reports whether the user's email address has been confirmed.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// NormalizeEmail lowercases and trims an address. All store lookups and
// writes go through this so the unique index on email is effective.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
