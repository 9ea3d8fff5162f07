package ports

import (
	"context"

	"github.com/tenantgrid/authd/internal/core/domain"
)

// UserStore persists user accounts. Implementations must enforce a
// unique index on email and a sparse unique index on keycloak_subject;
// the services rely on those constraints instead of in-process locking.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByKeycloakSubject(ctx context.Context, subject string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user and cascades its client memberships.
	Delete(ctx context.Context, id string) error
}

// ClientStore persists tenant clients.
type ClientStore interface {
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	// Delete removes the client and cascades its memberships.
	Delete(ctx context.Context, id string) error
}

// MembershipStore persists the user↔client join rows. Implementations
// must enforce a unique compound index on (user_id, client_id).
type MembershipStore interface {
	FindByID(ctx context.Context, id string) (*domain.ClientMembership, error)
	FindByUserAndClient(ctx context.Context, userID, clientID string) (*domain.ClientMembership, error)
	Create(ctx context.Context, m *domain.ClientMembership) (*domain.ClientMembership, error)
	Delete(ctx context.Context, id string) error
}

// CredentialStore bundles the three stores the auth core depends on.
type CredentialStore interface {
	Users() UserStore
	Clients() ClientStore
	Memberships() MembershipStore
}
