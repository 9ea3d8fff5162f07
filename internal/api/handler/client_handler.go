package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tenantgrid/authd/internal/api/metrics"
	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

type ClientHandler struct {
	access ports.AccessService
}

func NewClientHandler(access ports.AccessService) *ClientHandler {
	return &ClientHandler{access: access}
}

type createClientRequest struct {
	Name string `json:"name" validate:"required"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin user"`
}

type accessResponse struct {
	HasAccess      bool   `json:"has_access"`
	IsOwner        bool   `json:"is_owner"`
	MembershipRole string `json:"membership_role,omitempty"`
}

// CreateClient creates a tenant client owned by the caller.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  domain.Client
// @Failure      401   {object}  map[string]string
// @Router       /clients [post]
func (h *ClientHandler) CreateClient(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	client, err := h.access.CreateClient(c.Request().Context(), req.Name, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// GetAccess resolves the caller's access to a client.
//
// @Summary      Resolve access to a client
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  accessResponse
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id}/access [get]
func (h *ClientHandler) GetAccess(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	access, err := h.access.Resolve(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	metrics.AccessDecisionsTotal.WithLabelValues(decisionLabels(p, access)).Inc()

	return c.JSON(http.StatusOK, accessResponse{
		HasAccess:      access.HasAccess,
		IsOwner:        access.IsOwner,
		MembershipRole: access.MembershipRole,
	})
}

// DeleteClient removes a client and its memberships.
//
// @Summary      Delete a client
// @Tags         clients
// @Param        id  path  string  true  "Client ID"
// @Success      204  "removed"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.access.DeleteClient(c.Request().Context(), c.Param("id"), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddMember adds a user to a client with a role.
//
// @Summary      Add a user to a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Client ID"
// @Param        body  body      addMemberRequest  true  "User and role"
// @Success      201   {object}  domain.ClientMembership
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /clients/{id}/users [post]
func (h *ClientHandler) AddMember(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	membership, err := h.access.AddUserToClient(c.Request().Context(), c.Param("id"), req.UserID, req.Role, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, membership)
}

// RemoveMember deletes a membership from a client.
//
// @Summary      Remove a user from a client
// @Tags         clients
// @Produce      json
// @Param        id             path  string  true  "Client ID"
// @Param        membership_id  path  string  true  "Membership ID"
// @Success      204  "removed"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id}/users/{membership_id} [delete]
func (h *ClientHandler) RemoveMember(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.access.RemoveUserFromClient(c.Request().Context(), c.Param("id"), c.Param("membership_id"), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// decisionLabels derives the metric labels for an access resolution.
func decisionLabels(p *domain.Principal, access ports.ClientAccess) (decision, via string) {
	switch {
	case !access.HasAccess:
		return "denied", "none"
	case p.IsAPIKeyAuth:
		return "granted", "api-key"
	case p.IsGlobalAdmin():
		return "granted", "global-admin"
	case access.IsOwner:
		return "granted", "owner"
	default:
		return "granted", "membership"
	}
}
