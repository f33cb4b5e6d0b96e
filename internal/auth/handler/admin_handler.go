package handler

import (
	"time"

	"github.com/bkopanichuk/ems/internal/auth/dto"
	"github.com/bkopanichuk/ems/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	users              *service.UserService
	audit              *service.AuditService
	auditRetentionDays int
}

func NewAdminHandler(users *service.UserService, audit *service.AuditService, auditRetentionDays int) *AdminHandler {
	return &AdminHandler{users: users, audit: audit, auditRetentionDays: auditRetentionDays}
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var input dto.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.users.Create(c.Context(), input, requestMeta(c))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var input dto.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.users.Update(c.Context(), c.Params("id"), input, requestMeta(c))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.SoftDelete(c.Context(), c.Params("id"), requestMeta(c)); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "user deleted"})
}

func (h *AdminHandler) PurgeUser(c *fiber.Ctx) error {
	if err := h.users.Purge(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "user purged"})
}

func (h *AdminHandler) GetAuditLogs(c *fiber.Ctx) error {
	input := dto.AuditQueryInput{
		UserID:  c.Query("user_id"),
		Action:  c.Query("action"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 0),
	}

	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start_date"})
		}
		input.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid end_date"})
		}
		input.EndDate = &t
	}

	out, err := h.audit.Query(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AdminHandler) PruneAuditLogs(c *fiber.Ctx) error {
	retention := c.QueryInt("retention_days", h.auditRetentionDays)

	deleted, err := h.audit.Prune(c.Context(), retention)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"deleted": deleted})
}

func requestMeta(c *fiber.Ctx) dto.RequestMeta {
	return dto.RequestMeta{
		ActorID:   currentUserID(c),
		IPAddress: c.IP(),
		UserAgent: string(c.Request().Header.UserAgent()),
	}
}
