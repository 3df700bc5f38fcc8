package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/service"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// AuthHandler exposes login, signup and password endpoints.
type AuthHandler struct {
	sessions  *service.SessionService
	auth      *service.AuthService
	employees *service.EmployeeService
	logger    *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, authService *service.AuthService, employees *service.EmployeeService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, auth: authService, employees: employees, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Auth: dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		Me:   meResponse(result.Authorization),
	}})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	result, err := h.sessions.Refresh(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Auth: dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		Me:   meResponse(result.Authorization),
	}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.UserContext(), caller); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		EmployeeRef:     req.EmployeeID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": profileResponse(*profile)})
}

// Roster handles GET /auth/roster, the employee picker shown during signup.
func (h *AuthHandler) Roster(c *fiber.Ctx) error {
	roster, err := h.employees.Roster(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.RosterEntryResponse, 0, len(roster))
	for _, e := range roster {
		items = append(items, dto.RosterEntryResponse{ID: e.ID, EmployeeCode: e.Code, Name: e.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The response is
// the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reset, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	if reset != nil {
		h.logger.Debug("password reset issued", zap.String("account_id", reset.AccountID))
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "requested"}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	principal, ok := caller.Authorization.Principal.(identity.RealPrincipal)
	if !ok {
		return apperrors.NewValidationError("this identity has no password to change", nil)
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.UserID, caller.SessionID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meResponse(caller.Authorization)})
}
