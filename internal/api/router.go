package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/api/handler"
	"github.com/tenantgrid/authd/internal/api/middleware"
	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
)

// Deps carries everything the router wires together. The composition
// root in cmd/server constructs these once and hands them over.
type Deps struct {
	AuthCfg *config.AuthConfig
	Flow    ports.AuthFlowService
	Access  ports.AccessService
	Users   ports.UserStore
	Codec   ports.TokenCodec
	Limiter ports.LoginLimiter
	Events  ports.EventPublisher
	Health  *handler.HealthHandler
	Ready   *handler.ReadinessHandler
	Log     zerolog.Logger
}

// NewRouter builds the Echo instance with the guard chain and all
// routes registered. Guard order is fixed: OIDC verification, API-key,
// Keycloak sync, users session, then role requirements. Each guard
// declares its own activation predicate against the auth method and
// passes through when an earlier guard already attached a principal.
func NewRouter(deps Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("authd"))

	// --- Route metadata, declared at registration time ---
	routes := middleware.NewRoutes()
	public := middleware.RouteMeta{Public: true}
	routes.Declare(http.MethodGet, "/health", public)
	routes.Declare(http.MethodGet, "/health/ready", public)
	routes.Declare(http.MethodGet, "/metrics", public)
	routes.Declare(http.MethodPost, "/auth/login", public)
	routes.Declare(http.MethodPost, "/auth/register", public)
	routes.Declare(http.MethodPost, "/auth/confirm-email", public)
	routes.Declare(http.MethodPost, "/auth/request-password-reset", public)
	routes.Declare(http.MethodPost, "/auth/reset-password", public)
	// /auth/change-password and the client routes stay authenticated
	// with no extra role requirement; access rules live in the resolver.
	// User removal is the one route gated by role metadata.
	routes.Declare(http.MethodDelete, "/users/:id", middleware.RouteMeta{
		RequiredRoles: []string{domain.RoleAdmin},
	})

	// --- Guard chain, strictly ordered ---
	oidc, err := middleware.OIDCVerifier(deps.AuthCfg, deps.AuthCfg.KeycloakJWKSURL, deps.Log)
	if err != nil {
		return nil, fmt.Errorf("build oidc verifier: %w", err)
	}
	apiKey, err := middleware.APIKeyGuard(deps.AuthCfg, routes)
	if err != nil {
		return nil, fmt.Errorf("build api-key guard: %w", err)
	}
	keycloak := middleware.NewKeycloakSyncGuard(deps.AuthCfg, routes, deps.Users, deps.Events, deps.Log)

	e.Use(oidc)
	e.Use(apiKey)
	e.Use(keycloak.Middleware())
	e.Use(middleware.UsersSessionGuard(deps.AuthCfg, routes, deps.Codec))
	e.Use(middleware.RequireRoles(routes))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Flow, deps.Limiter, deps.Log)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/confirm-email", authHandler.ConfirmEmail)
	e.POST("/auth/request-password-reset", authHandler.RequestPasswordReset)
	e.POST("/auth/reset-password", authHandler.ResetPassword)
	e.POST("/auth/change-password", authHandler.ChangePassword)
	e.DELETE("/users/:id", authHandler.DeleteUser)

	// --- Client access routes ---
	clientHandler := handler.NewClientHandler(deps.Access)
	e.POST("/clients", clientHandler.CreateClient)
	e.DELETE("/clients/:id", clientHandler.DeleteClient)
	e.GET("/clients/:id/access", clientHandler.GetAccess)
	e.POST("/clients/:id/users", clientHandler.AddMember)
	e.DELETE("/clients/:id/users/:membership_id", clientHandler.RemoveMember)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", deps.Health.Liveness)
	if deps.Ready != nil {
		e.GET("/health/ready", deps.Ready.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
