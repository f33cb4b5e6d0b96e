package handler

import (
	"strings"

	"github.com/bkopanichuk/ems/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	localUserID = "userID"
	localLogin  = "login"
	localRole   = "role"
)

type AuthMiddleware struct {
	tokens service.TokenGenerator
}

func NewAuthMiddleware(tokens service.TokenGenerator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth verifies the Bearer access token purely by signature and expiry
// and stashes the claims for downstream handlers. No store lookup happens
// here; session state only matters at the refresh boundary.
func (m *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	claims, err := m.tokens.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid access token"})
	}

	c.Locals(localUserID, claims.Subject)
	c.Locals(localLogin, claims.Login)
	c.Locals(localRole, claims.Role)

	return c.Next()
}

func (m *AuthMiddleware) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals(localRole) != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		return c.Next()
	}
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)

	return id
}
