package handler

import (
	"github.com/bkopanichuk/ems/pkg/constant"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, auth *AuthHandler, profile *ProfileHandler, admin *AdminHandler, m *AuthMiddleware) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Post("/auth/login", auth.Login)
	api.Post("/auth/refresh", auth.Refresh)

	session := api.Group("/auth", m.RequireAuth)
	session.Post("/logout", auth.Logout)
	session.Post("/logout-all", auth.LogoutAll)
	session.Get("/sessions", auth.ListSessions)
	session.Delete("/sessions/:id", auth.RevokeSession)

	me := api.Group("/profile", m.RequireAuth)
	me.Get("/", profile.Get)
	me.Patch("/", profile.Update)
	me.Post("/change-password", profile.ChangePassword)

	// Admin-only endpoints
	adm := api.Group("/admin", m.RequireAuth, m.RequireRole(constant.RoleAdmin))
	adm.Post("/users", admin.CreateUser)
	adm.Get("/users", admin.ListUsers)
	adm.Get("/users/:id", admin.GetUser)
	adm.Patch("/users/:id", admin.UpdateUser)
	adm.Delete("/users/:id", admin.DeleteUser)
	adm.Delete("/users/:id/purge", admin.PurgeUser)
	adm.Get("/audit-logs", admin.GetAuditLogs)
	adm.Post("/audit-logs/prune", admin.PruneAuditLogs)
}
