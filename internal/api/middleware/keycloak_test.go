package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// memUsers is an in-memory UserStore for guard tests.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (s *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == domain.NormalizeEmail(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUsers) FindByKeycloakSubject(_ context.Context, subject string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.KeycloakSubject != "" && u.KeycloakSubject == subject {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUsers) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *memUsers) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	s.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (s *memUsers) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(event domain.Event) {
	p.events = append(p.events, event)
}

func keycloakTestSetup(t *testing.T) (*echo.Echo, *memUsers, *recordingPublisher, echo.MiddlewareFunc) {
	t.Helper()
	e := echo.New()
	users := newMemUsers()
	events := &recordingPublisher{}
	cfg := &config.AuthConfig{ConfiguredMethod: config.MethodKeycloak}
	guard := NewKeycloakSyncGuard(cfg, NewRoutes(), users, events, zerolog.Nop())
	return e, users, events, guard.Middleware()
}

func runKeycloakGuard(e *echo.Echo, mw echo.MiddlewareFunc, claims map[string]any) (*httptest.ResponseRecorder, *domain.Principal, error) {
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/clients")
	if claims != nil {
		SetRawClaims(c, claims)
	}

	var principal *domain.Principal
	handler := mw(func(c echo.Context) error {
		principal = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, principal, err
}

func TestKeycloakSync_FirstSeenUserBecomesAdmin(t *testing.T) {
	e, users, events, mw := keycloakTestSetup(t)

	_, principal, err := runKeycloakGuard(e, mw, map[string]any{
		"sub":   "kc-1",
		"email": "First@Example.com",
	})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if principal == nil {
		t.Fatalf("principal not attached")
	}

	user, lookupErr := users.FindByKeycloakSubject(context.Background(), "kc-1")
	if lookupErr != nil {
		t.Fatalf("provisioned user missing: %v", lookupErr)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("first federated user should be admin, got %s", user.Role)
	}
	if user.Email != "first@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if !user.Confirmed() {
		t.Fatalf("federated user should be pre-confirmed")
	}

	if len(events.events) != 1 || events.events[0].Kind != domain.EventUserCreated {
		t.Fatalf("expected UserCreated event, got %v", events.events)
	}
}

func TestKeycloakSync_SubjectShortCircuit(t *testing.T) {
	e, users, _, mw := keycloakTestSetup(t)

	ts := time.Now().UTC()
	seeded, err := users.Create(context.Background(), &domain.User{
		Email:            "existing@example.com",
		Role:             domain.RoleUser,
		KeycloakSubject:  "kc-1",
		EmailConfirmedAt: &ts,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, principal, err := runKeycloakGuard(e, mw, map[string]any{
		"sub":   "kc-1",
		"email": "different@example.com",
	})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if principal == nil || principal.ID != seeded.ID {
		t.Fatalf("expected existing user id, got %+v", principal)
	}

	count, _ := users.Count(context.Background())
	if count != 1 {
		t.Fatalf("no new user must be created, count=%d", count)
	}
}

func TestKeycloakSync_LinksByEmailWithoutEscalation(t *testing.T) {
	e, users, _, mw := keycloakTestSetup(t)

	// Two local users exist, so the incoming identity would compute
	// role=user even if the token claims admin.
	ts := time.Now().UTC()
	local, err := users.Create(context.Background(), &domain.User{
		Email:            "local@example.com",
		PasswordHash:     "x",
		Role:             domain.RoleUser,
		EmailConfirmedAt: &ts,
	})
	if err != nil {
		t.Fatalf("seed local: %v", err)
	}
	if _, err := users.Create(context.Background(), &domain.User{
		Email:            "other@example.com",
		PasswordHash:     "x",
		Role:             domain.RoleAdmin,
		EmailConfirmedAt: &ts,
	}); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	_, principal, err := runKeycloakGuard(e, mw, map[string]any{
		"sub":          "kc-9",
		"email":        "Local@Example.com",
		"realm_access": map[string]any{"roles": []any{"admin"}},
	})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if principal == nil || principal.ID != local.ID {
		t.Fatalf("expected linked local user, got %+v", principal)
	}

	linked, err := users.FindByKeycloakSubject(context.Background(), "kc-9")
	if err != nil {
		t.Fatalf("link not persisted: %v", err)
	}
	// The local role stands; the keycloak admin claim does not change it.
	if linked.Role != domain.RoleUser {
		t.Fatalf("role escalated on link: %s", linked.Role)
	}
	if linked.PasswordHash == "" {
		t.Fatalf("local password must survive linking")
	}
}

func TestKeycloakSync_EmailFallbacks(t *testing.T) {
	e, users, _, mw := keycloakTestSetup(t)

	if _, _, err := runKeycloakGuard(e, mw, map[string]any{
		"sub":                "kc-a",
		"preferred_username": "pref@example.com",
	}); err != nil {
		t.Fatalf("guard: %v", err)
	}
	if u, err := users.FindByKeycloakSubject(context.Background(), "kc-a"); err != nil || u.Email != "pref@example.com" {
		t.Fatalf("preferred_username fallback failed: %+v, %v", u, err)
	}

	if _, _, err := runKeycloakGuard(e, mw, map[string]any{"sub": "kc-b"}); err != nil {
		t.Fatalf("guard: %v", err)
	}
	if u, err := users.FindByKeycloakSubject(context.Background(), "kc-b"); err != nil || u.Email != "kc-b@keycloak" {
		t.Fatalf("sub fallback failed: %+v, %v", u, err)
	}
}

func TestKeycloakSync_NoSubPassesThrough(t *testing.T) {
	e, users, _, mw := keycloakTestSetup(t)

	// No claims at all.
	rec, principal, err := runKeycloakGuard(e, mw, nil)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if rec.Code != http.StatusOK || principal != nil {
		t.Fatalf("expected unauthenticated pass-through, got %d %+v", rec.Code, principal)
	}

	// Claims without sub.
	_, principal, err = runKeycloakGuard(e, mw, map[string]any{"email": "x@example.com"})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if principal != nil {
		t.Fatalf("no principal expected without sub")
	}
	if count, _ := users.Count(context.Background()); count != 0 {
		t.Fatalf("no user must be provisioned without sub")
	}
}

func TestKeycloakSync_InactiveMethodPassesThrough(t *testing.T) {
	e := echo.New()
	cfg := &config.AuthConfig{ConfiguredMethod: config.MethodUsers}
	guard := NewKeycloakSyncGuard(cfg, NewRoutes(), newMemUsers(), &recordingPublisher{}, zerolog.Nop())

	_, principal, err := runKeycloakGuard(e, guard.Middleware(), map[string]any{"sub": "kc-1"})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if principal != nil {
		t.Fatalf("inactive guard must not attach a principal")
	}
}
