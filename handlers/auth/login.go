package auth

import (
	"context"

	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/middleware"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// Brute force scopes; student and admin logins are counted separately.
const (
	ScopeStudentLogin = "student_login"
	ScopeAdminLogin   = "admin_login"
)

// AuthHandler handles login, logout and identity for students and admins
type AuthHandler struct {
	validator            *validation.Validator
	authService          *services.AuthService
	bruteForceProtection *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler. bruteForce may be nil.
func NewAuthHandler(authService *services.AuthService, bruteForce *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		validator:            validation.NewValidator(),
		authService:          authService,
		bruteForceProtection: bruteForce,
	}
}

// StudentLogin handles POST /api/auth/login
func (h *AuthHandler) StudentLogin(c *fiber.Ctx) error {
	return h.login(c, ScopeStudentLogin, h.authService.StudentLogin)
}

// AdminLogin handles POST /api/admin/login
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	return h.login(c, ScopeAdminLogin, h.authService.AdminLogin)
}

type loginFunc func(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)

func (h *AuthHandler) login(c *fiber.Ctx, scope string, login loginFunc) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	ip := c.IP()

	result, err := login(ctx, req)
	if err != nil {
		if apperror.Is(err, apperror.KindUnauthorized) {
			h.bruteForceProtection.RecordFailedAttempt(ctx, scope, ip)
		}
		return response.FromError(c, err)
	}

	h.bruteForceProtection.RecordSuccessfulAttempt(ctx, scope, ip)
	return response.SuccessWithMessage(c, "Login successful", result)
}

// Logout handles POST /api/auth/logout and /api/admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	if err := h.authService.Logout(c.UserContext(), claims); err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	identity, err := h.authService.Me(c.UserContext(), claims)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, identity)
}
