package main

import (
	"context"
	"log"
	"time"

	"github.com/bkopanichuk/ems/config"
	"github.com/bkopanichuk/ems/db"
	"github.com/bkopanichuk/ems/internal/auth/handler"
	repo "github.com/bkopanichuk/ems/internal/auth/repository/postgres"
	"github.com/bkopanichuk/ems/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	credRepo := repo.NewCredentialRepository(pool)
	sessionRepo := repo.NewSessionRepository(pool)
	auditRepo := repo.NewAuditRepository(pool)

	clock := service.SystemClock{}
	ids := service.UUIDGenerator{}
	hasher := service.BcryptHasher{}

	auditService := service.NewAuditService(auditRepo, clock, ids)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin, cfg.RefreshExpiryDays)
	sessionService := service.NewSessionService(credRepo, sessionRepo, auditService, tokenService, hasher, clock, ids, cfg)
	userService := service.NewUserService(credRepo, sessionRepo, auditService, hasher, clock, ids)
	profileService := service.NewProfileService(credRepo, auditService, hasher, clock)

	authHandler := handler.NewAuthHandler(sessionService)
	profileHandler := handler.NewProfileHandler(profileService)
	adminHandler := handler.NewAdminHandler(userService, auditService, cfg.AuditRetentionDays)
	authMiddleware := handler.NewAuthMiddleware(tokenService)

	go pruneAuditLogs(ctx, auditService, cfg.AuditRetentionDays)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, profileHandler, adminHandler, authMiddleware)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// pruneAuditLogs enforces the audit retention window once a day.
func pruneAuditLogs(ctx context.Context, audit *service.AuditService, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := audit.Prune(ctx, retentionDays)
			if err != nil {
				log.Printf("warn: audit prune failed: %v", err)

				continue
			}
			if deleted > 0 {
				log.Printf("audit prune removed %d events", deleted)
			}
		}
	}
}
