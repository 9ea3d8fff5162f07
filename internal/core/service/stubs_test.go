package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

// stubStore is an in-memory CredentialStore for service tests.
type stubStore struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	clients     map[string]*domain.Client
	memberships map[string]*domain.ClientMembership
}

func newStubStore() *stubStore {
	return &stubStore{
		users:       make(map[string]*domain.User),
		clients:     make(map[string]*domain.Client),
		memberships: make(map[string]*domain.ClientMembership),
	}
}

func (s *stubStore) Users() ports.UserStore             { return (*stubUsers)(s) }
func (s *stubStore) Clients() ports.ClientStore         { return (*stubClients)(s) }
func (s *stubStore) Memberships() ports.MembershipStore { return (*stubMemberships)(s) }

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

type stubUsers stubStore

func (s *stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == domain.NormalizeEmail(email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) FindByKeycloakSubject(_ context.Context, subject string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.KeycloakSubject != "" && u.KeycloakSubject == subject {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *stubUsers) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = uuid.NewString()
	}
	s.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (s *stubUsers) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *stubUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	for mid, m := range s.memberships {
		if m.UserID == id {
			delete(s.memberships, mid)
		}
	}
	return nil
}

type stubClients stubStore

func (s *stubClients) FindByID(_ context.Context, id string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrClientNotFound
}

func (s *stubClients) Create(_ context.Context, client *domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	clone := *client
	s.clients[client.ID] = &clone
	return client, nil
}

func (s *stubClients) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(s.clients, id)
	for mid, m := range s.memberships {
		if m.ClientID == id {
			delete(s.memberships, mid)
		}
	}
	return nil
}

type stubMemberships stubStore

func (s *stubMemberships) FindByID(_ context.Context, id string) (*domain.ClientMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memberships[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, domain.ErrMembershipNotFound
}

func (s *stubMemberships) FindByUserAndClient(_ context.Context, userID, clientID string) (*domain.ClientMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.ClientID == clientID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, domain.ErrMembershipNotFound
}

func (s *stubMemberships) Create(_ context.Context, m *domain.ClientMembership) (*domain.ClientMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.ClientID == m.ClientID {
			return nil, domain.ErrDuplicateMembership
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	clone := *m
	s.memberships[m.ID] = &clone
	return m, nil
}

func (s *stubMemberships) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[id]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(s.memberships, id)
	return nil
}

// stubMailer records outbound mail.
type stubMailer struct {
	sent []stubMail
	err  error
}

type stubMail struct {
	to, subject, body string
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, stubMail{to: to, subject: subject, body: body})
	return nil
}

// stubPublisher records published events.
type stubPublisher struct {
	events []domain.Event
}

func (p *stubPublisher) Publish(event domain.Event) {
	p.events = append(p.events, event)
}
