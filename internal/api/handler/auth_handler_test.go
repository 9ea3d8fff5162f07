package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/api/middleware"
	"github.com/tenantgrid/authd/internal/core/domain"
)

// stubFlow implements ports.AuthFlowService with canned responses.
type stubFlow struct {
	loginToken string
	loginUser  *domain.User
	loginErr   error

	registerUser    *domain.User
	registerMessage string
	registerErr     error

	resetRequests []string
	resetErr      error

	changeCalls int
	changeErr   error

	deleted   []string
	deleteErr error
}

func (s *stubFlow) Login(_ context.Context, _, _ string) (string, *domain.User, error) {
	return s.loginToken, s.loginUser, s.loginErr
}

func (s *stubFlow) Register(_ context.Context, _, _ string) (*domain.User, string, error) {
	return s.registerUser, s.registerMessage, s.registerErr
}

func (s *stubFlow) ConfirmEmail(_ context.Context, _, _ string) error { return nil }

func (s *stubFlow) RequestPasswordReset(_ context.Context, email string) error {
	s.resetRequests = append(s.resetRequests, email)
	return s.resetErr
}

func (s *stubFlow) ResetPassword(_ context.Context, _, _, _ string) error { return nil }

func (s *stubFlow) ChangePassword(_ context.Context, _, _, _, _ string) error {
	s.changeCalls++
	return s.changeErr
}

func (s *stubFlow) DeleteUser(_ context.Context, userID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, userID)
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	return c, rec
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestLoginSuccess(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{
		loginToken: "tok-123",
		loginUser:  &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleUser},
	}
	limiter := &stubLimiter{allowed: true}
	h := NewAuthHandler(flow, limiter, zerolog.Nop())

	c, rec := postJSON(e, "/auth/login", `{"email":"A@Example.com","password":"secret123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "tok-123" || resp.User.ID != "u1" || resp.User.Role != domain.RoleUser {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// The limiter key is the normalized address.
	if len(limiter.keys) != 1 || limiter.keys[0] != "a@example.com" {
		t.Fatalf("limiter keys = %v", limiter.keys)
	}
}

func TestLoginThrottled(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubFlow{}, &stubLimiter{allowed: false}, zerolog.Nop())

	c, _ := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"secret123"}`)
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{
		loginToken: "tok",
		loginUser:  &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleUser},
	}

	// An erroring limiter must not block login, even when the
	// implementation returns allowed=false alongside the error.
	for _, limiter := range []*stubLimiter{
		{allowed: true, err: context.DeadlineExceeded},
		{allowed: false, err: context.DeadlineExceeded},
	} {
		h := NewAuthHandler(flow, limiter, zerolog.Nop())
		c, rec := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"secret123"}`)
		if err := h.Login(c); err != nil {
			t.Fatalf("limiter error must not block login: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}

func TestLoginRejectionPropagates(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubFlow{loginErr: domain.ErrInvalidCredentials}, &stubLimiter{allowed: true}, zerolog.Nop())

	c, _ := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"wrong-pass"}`)
	if err := h.Login(c); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	e := newTestEcho()
	limiter := &stubLimiter{allowed: true}
	h := NewAuthHandler(&stubFlow{}, limiter, zerolog.Nop())

	for name, body := range map[string]string{
		"not an email":     `{"email":"nope","password":"secret123"}`,
		"missing password": `{"email":"a@example.com"}`,
		"not json":         `{{{`,
	} {
		c, _ := postJSON(e, "/auth/login", body)
		err := h.Login(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", name, err)
		}
	}
	if len(limiter.keys) != 0 {
		t.Fatalf("invalid payloads must not reach the limiter")
	}
}

func TestRegisterCreated(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{
		registerUser:    &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleAdmin},
		registerMessage: "registration complete",
	}
	h := NewAuthHandler(flow, &stubLimiter{allowed: true}, zerolog.Nop())

	c, rec := postJSON(e, "/auth/register", `{"email":"a@example.com","password":"secret123"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "registration complete") {
		t.Fatalf("message missing from body: %s", rec.Body.String())
	}
}

func TestRegisterShortPassword(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubFlow{}, &stubLimiter{allowed: true}, zerolog.Nop())

	c, _ := postJSON(e, "/auth/register", `{"email":"a@example.com","password":"short"}`)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestResetRequestMessageIsUniform(t *testing.T) {
	e := newTestEcho()

	// Same body whether the flow found the account or silently skipped it.
	bodies := make(map[string]struct{})
	for _, flow := range []*stubFlow{{}, {}} {
		h := NewAuthHandler(flow, &stubLimiter{allowed: true}, zerolog.Nop())
		c, rec := postJSON(e, "/auth/request-password-reset", `{"email":"any@example.com"}`)
		if err := h.RequestPasswordReset(c); err != nil {
			t.Fatalf("reset request: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), resetRequestedMessage) {
			t.Fatalf("body missing uniform message: %s", rec.Body.String())
		}
		bodies[rec.Body.String()] = struct{}{}
	}
	if len(bodies) != 1 {
		t.Fatalf("responses differ: %v", bodies)
	}
}

func TestDeleteUser(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{}
	h := NewAuthHandler(flow, &stubLimiter{allowed: true}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodDelete, "/users/u1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id")
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(flow.deleted) != 1 || flow.deleted[0] != "u1" {
		t.Fatalf("deleted = %v", flow.deleted)
	}

	// Store errors propagate to the central error mapping.
	flow.deleteErr = domain.ErrUserNotFound
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/users/ghost", nil), httptest.NewRecorder())
	c.SetPath("/users/:id")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	if err := h.DeleteUser(c); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestChangePasswordRequiresPrincipal(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{}
	h := NewAuthHandler(flow, &stubLimiter{allowed: true}, zerolog.Nop())

	c, _ := postJSON(e, "/auth/change-password",
		`{"currentPassword":"old-pass","newPassword":"new-pass-1","newPasswordConfirmation":"new-pass-1"}`)
	err := h.ChangePassword(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %v", err)
	}
	if flow.changeCalls != 0 {
		t.Fatalf("flow must not be reached without a principal")
	}
}

func TestChangePasswordWithPrincipal(t *testing.T) {
	e := newTestEcho()
	flow := &stubFlow{}
	h := NewAuthHandler(flow, &stubLimiter{allowed: true}, zerolog.Nop())

	c, rec := postJSON(e, "/auth/change-password",
		`{"currentPassword":"old-pass","newPassword":"new-pass-1","newPasswordConfirmation":"new-pass-1"}`)
	middleware.SetPrincipal(c, &domain.Principal{ID: "u1", Roles: []string{domain.RoleUser}})

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if rec.Code != http.StatusOK || flow.changeCalls != 1 {
		t.Fatalf("status = %d, calls = %d", rec.Code, flow.changeCalls)
	}
}
