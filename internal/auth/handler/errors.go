package handler

import (
	"errors"
	"log"

	autherror "github.com/bkopanichuk/ems/internal/errors"
	"github.com/gofiber/fiber/v2"
)

// fail maps service errors onto HTTP statuses. Token reuse is deliberately
// forbidden rather than unauthorized: the client must force a full re-login,
// not retry the refresh. Anything outside the taxonomy is an infrastructure
// failure and comes back as 500 without leaking detail.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrTokenReuseDetected),
		errors.Is(err, autherror.ErrAdminPasswordChange):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrAccountLocked),
		errors.Is(err, autherror.ErrAccountBlocked),
		errors.Is(err, autherror.ErrTokenInvalid),
		errors.Is(err, autherror.ErrTokenExpired),
		errors.Is(err, autherror.ErrCurrentPasswordInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrSessionNotFound),
		errors.Is(err, autherror.ErrLoginTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("error: %s %s: %v", c.Method(), c.Path(), err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
