package domain

import "time"

// Client is a tenant-scoped resource. The user referenced by OwnerUserID
// (the creator) has implicit administrative access regardless of any
// membership rows.
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	OwnerUserID string    `json:"owner_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientMembership grants a user a role on a specific client.
// At most one row may exist per (UserID, ClientID) pair.
type ClientMembership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
