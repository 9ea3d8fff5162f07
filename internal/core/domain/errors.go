package domain

import "errors"

// Sentinel errors raised by the auth core. The API layer translates them
// to transport status codes in exactly one place; services never encode
// HTTP semantics themselves.
var (
	// ErrInvalidCredentials covers every login failure mode: unknown
	// email, unconfirmed email, federated-only account, wrong password.
	// Collapsing them prevents account-existence enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrForbidden = errors.New("access forbidden")

	ErrInvalidCode          = errors.New("invalid or expired code")
	ErrInvalidRole          = errors.New("invalid role")
	ErrPasswordConfirmation = errors.New("password confirmation does not match")
	ErrNoLocalPassword      = errors.New("account has no local password")
	ErrSignupDisabled       = errors.New("signups are disabled")

	ErrEmailTaken          = errors.New("email already registered")
	ErrDuplicateMembership = errors.New("user is already a member of this client")

	ErrUserNotFound       = errors.New("user not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrMembershipMismatch is raised when a membership row exists but
	// does not belong to the client named in the request.
	ErrMembershipMismatch = errors.New("membership does not belong to this client")
)
