package ports

import (
	"context"

	"github.com/tenantgrid/authd/internal/core/domain"
)

// ClientAccess is the outcome of resolving a principal against a client.
type ClientAccess struct {
	HasAccess      bool
	IsOwner        bool
	MembershipRole string // set only when access came from a membership row
}

// AccessService decides whether a principal may act on a client and
// mutates the membership rows that back those decisions.
type AccessService interface {
	Resolve(ctx context.Context, clientID string, p *domain.Principal) (ClientAccess, error)
	EnsureAccess(ctx context.Context, clientID string, p *domain.Principal) error
	AddUserToClient(ctx context.Context, clientID, userID, role string, actor *domain.Principal) (*domain.ClientMembership, error)
	RemoveUserFromClient(ctx context.Context, clientID, membershipID string, actor *domain.Principal) error
	CreateClient(ctx context.Context, name string, owner *domain.Principal) (*domain.Client, error)
	// DeleteClient removes a client and cascades its memberships. Only
	// the owner, a global admin or an API-key caller may do this.
	DeleteClient(ctx context.Context, clientID string, actor *domain.Principal) error
}
