package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisAddr     string
	AdminToken    string
	SweepInterval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NDI_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminToken := os.Getenv("NDI_ADMIN_TOKEN")
	if adminToken == "" {
		// Development default - must be overridden in production
		adminToken = "dev-admin-token"
	}

	sweepInterval := 24 * time.Hour
	if raw := os.Getenv("NDI_SWEEP_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			sweepInterval = parsed
		}
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		AdminToken:    adminToken,
		SweepInterval: sweepInterval,
	}
}
