package ports

import (
	"context"

	"github.com/tenantgrid/authd/internal/core/domain"
)

// AuthFlowService orchestrates the local-account credential flows.
type AuthFlowService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Register(ctx context.Context, email, password string) (*domain.User, string, error)
	ConfirmEmail(ctx context.Context, email, code string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, current, next, nextConfirmation string) error
	// DeleteUser removes an account and cascades its memberships.
	// Exposed on an admin-only route; the route table enforces the role.
	DeleteUser(ctx context.Context, userID string) error
}
