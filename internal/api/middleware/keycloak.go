package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// KeycloakSyncGuard maps a verified OIDC payload onto a local user row,
// provisioning the row just-in-time on first sight. Active only when
// the resolved method is keycloak.
//
// A payload without a sub claim passes through unauthenticated rather
// than failing hard. That leniency exists for public routes; on any
// other route it is logged so the gap stays visible.
type KeycloakSyncGuard struct {
	cfg    *config.AuthConfig
	routes *Routes
	users  ports.UserStore
	events ports.EventPublisher
	log    zerolog.Logger
}

func NewKeycloakSyncGuard(cfg *config.AuthConfig, routes *Routes, users ports.UserStore, events ports.EventPublisher, log zerolog.Logger) *KeycloakSyncGuard {
	return &KeycloakSyncGuard{cfg: cfg, routes: routes, users: users, events: events, log: log}
}

// Middleware returns the echo middleware form of the guard.
func (g *KeycloakSyncGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.cfg.Method() != config.MethodKeycloak {
				return next(c)
			}

			claims := RawClaimsFrom(c)
			sub, _ := claims["sub"].(string)
			if sub == "" {
				if !g.routes.IsPublic(c) {
					g.log.Warn().Str("path", c.Path()).Msg("keycloak guard: no sub claim, passing through unauthenticated")
				}
				return next(c)
			}

			user, err := g.sync(c.Request().Context(), sub, claims)
			if err != nil {
				return err
			}

			SetPrincipal(c, &domain.Principal{
				ID:    user.ID,
				Email: user.Email,
				Roles: mergeRoles(ExtractRoles(claims), user.Role),
			})
			return next(c)
		}
	}
}

// sync resolves the OIDC subject to a local user row, in order: subject
// lookup, email link, just-in-time creation. Linking never escalates
// the existing local role; the first user ever seen becomes admin.
func (g *KeycloakSyncGuard) sync(ctx context.Context, sub string, claims map[string]any) (*domain.User, error) {
	user, err := g.users.FindByKeycloakSubject(ctx, sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	count, err := g.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleAdmin
	}

	email := domain.NormalizeEmail(claimEmail(sub, claims))

	existing, err := g.users.FindByEmail(ctx, email)
	if err == nil {
		// Link the federated identity to the local account. The local
		// role stands; a keycloak admin claim does not escalate it.
		existing.KeycloakSubject = sub
		existing.UpdatedAt = time.Now().UTC()
		if err := g.users.Update(ctx, existing); err != nil {
			return nil, err
		}
		g.events.Publish(domain.Event{
			Kind:       domain.EventUserLinked,
			UserID:     existing.ID,
			Source:     "keycloak",
			OccurredAt: existing.UpdatedAt,
		})
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// Federated identities arrive pre-verified by the issuer, so the
	// provisioned row is confirmed immediately.
	ts := time.Now().UTC()
	created, err := g.users.Create(ctx, &domain.User{
		ID:               uuid.NewString(),
		Email:            email,
		Role:             role,
		KeycloakSubject:  sub,
		EmailConfirmedAt: &ts,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	})
	if err != nil {
		return nil, err
	}
	g.events.Publish(domain.Event{
		Kind:       domain.EventUserCreated,
		UserID:     created.ID,
		Source:     "keycloak",
		OccurredAt: ts,
	})
	return created, nil
}

// claimEmail picks the best available address from the token payload.
func claimEmail(sub string, claims map[string]any) string {
	if email, _ := claims["email"].(string); email != "" {
		return email
	}
	if username, _ := claims["preferred_username"].(string); username != "" {
		return username
	}
	return fmt.Sprintf("%s@keycloak", sub)
}

func mergeRoles(roles []string, localRole string) []string {
	for _, r := range roles {
		if r == localRole {
			return roles
		}
	}
	return append(roles, localRole)
}
