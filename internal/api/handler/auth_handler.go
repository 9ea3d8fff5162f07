package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/api/metrics"
	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

// resetRequestedMessage is returned for every password-reset request,
// existing account or not. Byte-identical responses keep the endpoint
// useless as an account-existence oracle.
const resetRequestedMessage = "if the address exists, a reset code has been sent"

type AuthHandler struct {
	flow    ports.AuthFlowService
	limiter ports.LoginLimiter
	log     zerolog.Logger
}

func NewAuthHandler(flow ports.AuthFlowService, limiter ports.LoginLimiter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{flow: flow, limiter: limiter, log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type confirmEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type resetRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"currentPassword" validate:"required"`
	NewPassword             string `json:"newPassword" validate:"required,min=8"`
	NewPasswordConfirmation string `json:"newPasswordConfirmation" validate:"required"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	User        userView `json:"user"`
}

type registerResponse struct {
	User    userView `json:"user"`
	Message string   `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func viewOf(u *domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Login authenticates a local account and issues a session token.
//
// @Summary      Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	allowed, err := h.limiter.Allow(c.Request().Context(), domain.NormalizeEmail(req.Email))
	if err != nil {
		// Fail open: a limiter outage must not take logins down,
		// whatever the implementation returned alongside the error.
		h.log.Warn().Err(err).Msg("login limiter unavailable")
		allowed = true
	}
	if !allowed {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}

	token, user, err := h.flow.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{AccessToken: token, User: viewOf(user)})
}

// Register creates a local account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, message, err := h.flow.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case domain.ErrSignupDisabled:
			metrics.RegistrationsTotal.WithLabelValues("disabled").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, registerResponse{User: viewOf(user), Message: message})
}

// ConfirmEmail redeems an emailed confirmation code.
//
// @Summary      Confirm an email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      confirmEmailRequest  true  "Email and code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/confirm-email [post]
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	var req confirmEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.flow.ConfirmEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email confirmed"})
}

// RequestPasswordReset issues a reset code when the account exists.
//
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Router       /auth/request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.flow.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: resetRequestedMessage})
}

// ResetPassword redeems a reset code and sets a new password.
//
// @Summary      Reset a forgotten password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, code, new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.flow.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

// ChangePassword replaces the authenticated user's password.
//
// @Summary      Change the current password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.flow.ChangePassword(c.Request().Context(), p.ID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirmation); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// DeleteUser removes an account and its memberships. The route table
// restricts this to global admins.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id  path  string  true  "User ID"
// @Success      204  "removed"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	if err := h.flow.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
