package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when a key is absent from both the environment and the
// env file. Lockout threshold and duration mirror the security policy:
// five failures lock the account for fifteen minutes.
const (
	DefaultPort                  = "8080"
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryDay = 7
	DefaultLoginMaxAttempts      = 5
	DefaultLockoutMinutes        = 15
	DefaultAuditRetentionDays    = 90
)

type Config struct {
	Env               string
	Port              string
	DBURL             string
	AccessTokenSecret string

	AccessExpiryMin   int
	RefreshExpiryDays int

	LoginMaxAttempts   int
	LockoutMinutes     int
	AuditRetentionDays int
}

// Load reads configuration from the environment, falling back to a
// config/.env.<env> file. Environment variables always win over file values.
func Load() *Config {
	env := getEnv("ENV", "development")
	loadEnvFile(env)

	return &Config{
		Env:                env,
		Port:               getEnv("PORT", DefaultPort),
		DBURL:              mustGetEnv("DB_URL"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("JWT_ACCESS_EXPIRY_MIN", DefaultAccessTokenExpiryMin),
		RefreshExpiryDays:  getEnvAsInt("JWT_REFRESH_EXPIRY_DAYS", DefaultRefreshTokenExpiryDay),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_FAILED_ATTEMPTS", DefaultLoginMaxAttempts),
		LockoutMinutes:     getEnvAsInt("LOGIN_LOCKOUT_MINUTES", DefaultLockoutMinutes),
		AuditRetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", DefaultAuditRetentionDays),
	}
}

// loadEnvFile pulls config/.env.dev or config/.env.prod into the process
// environment. godotenv does not overwrite variables that are already set, so
// real environment values take precedence. A missing file is not an error.
func loadEnvFile(env string) {
	suffix := "dev"
	if env == "production" {
		suffix = "prod"
	}
	_ = godotenv.Load(filepath.Join("config", ".env."+suffix))
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func getEnvAsInt(key string, fallback int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, fallback)
		return fallback
	}
	return val
}
