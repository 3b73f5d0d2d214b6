package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	revocations RevocationChecker
}

// NewAuthMiddleware creates a new auth middleware. revocations may be nil.
func NewAuthMiddleware(jwtManager *auth.JWTManager, revocations RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		revocations: revocations,
	}
}

var errMissingToken = errors.New("missing token")

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", errMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrMalformedToken
	}
	return strings.TrimSpace(token), nil
}

// authenticate validates the bearer token and stores its claims in Locals.
// On rejection it writes the response and returns false.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (bool, error) {
	tokenString, err := bearerToken(c)
	if errors.Is(err, errMissingToken) {
		return false, response.Unauthorized(c, "Missing authorization token")
	}
	if err != nil {
		return false, response.Forbidden(c, "Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return false, response.Forbidden(c, "Token has expired")
		}
		return false, response.Forbidden(c, "Invalid token")
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsTokenRevoked(c.UserContext(), claims.ID)
		if err != nil {
			log.Errorf("token revocation check failed: %v", err)
			return false, response.InternalServerError(c, "Failed to check token status")
		}
		if revoked {
			return false, response.Forbidden(c, "Token has been revoked")
		}
	}

	c.Locals("user_id", claims.SubjectID)
	c.Locals("username", claims.Username)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)

	return true, nil
}

// Required rejects requests without a valid token: 401 when the token is
// absent, 403 when it is malformed, invalid, expired or revoked.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires specific user role. It must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin validates the token inline and requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		return m.RequireRole(auth.RoleAdmin)(c)
	}
}

// RequireSelfOrAdmin lets admins through and students only when the route
// parameter names their own id. It must run after Required.
func (m *AuthMiddleware) RequireSelfOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsAdmin(c) {
			return c.Next()
		}

		userID, ok := GetUserID(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}

		id, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err != nil || uint(id) != userID {
			return response.Forbidden(c, "Access denied")
		}

		return c.Next()
	}
}

// GetUserID extracts the authenticated student or admin id from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("user_role").(string)
	return role, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	return claims, ok
}

// IsAdmin reports whether the authenticated caller is an admin
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := GetUserRole(c)
	return role == auth.RoleAdmin
}
