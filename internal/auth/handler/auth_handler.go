package handler

import (
	"github.com/bkopanichuk/ems/internal/auth/dto"
	"github.com/bkopanichuk/ems/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	sessions *service.SessionService
}

func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	session, err := h.sessions.Authenticate(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	pair, err := h.sessions.Rotate(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(pair)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	// Body is optional: logout without a token is still audited.
	_ = c.BodyParser(&input)

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	if err := h.sessions.Logout(c.Context(), currentUserID(c), input); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out successfully"})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	input := dto.LogoutInput{
		IPAddress: c.IP(),
		UserAgent: string(c.Request().Header.UserAgent()),
	}

	if err := h.sessions.LogoutAll(c.Context(), currentUserID(c), input); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out from all devices"})
}

// ListSessions returns the caller's active sessions. The engine does not know
// which session the request came from, so the client may send its refresh
// token in X-Refresh-Token to have the matching entry flagged as current.
func (h *AuthHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.sessions.ListActiveSessions(c.Context(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}

	presented := c.Get("X-Refresh-Token")

	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.SessionOutput{
			ID:        s.ID,
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			IsCurrent: presented != "" && s.Token == presented,
		})
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) RevokeSession(c *fiber.Ctx) error {
	if err := h.sessions.RevokeSession(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "session revoked successfully"})
}
