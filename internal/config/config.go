package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string

	// TokenSecret signs dashboard capability tokens. Must be at least
	// 16 bytes so forgery without it stays computationally infeasible.
	TokenSecret string

	// TokenMaxAge is the general dashboard window (default 7 days).
	// One-off token resolution always uses the short fixed window.
	TokenMaxAge time.Duration

	// BootstrapAdmin enables the explicit one-time superuser provisioning
	// step. Never triggered implicitly by migrations.
	BootstrapAdmin bool
	AdminUsername  string
	AdminPassword  string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		TokenSecret:    os.Getenv("TOKEN_SECRET"),
		TokenMaxAge:    7 * 24 * time.Hour,
		BootstrapAdmin: os.Getenv("BOOTSTRAP_ADMIN") == "1",
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}

	if hoursStr := os.Getenv("TOKEN_MAX_AGE_HOURS"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			log.Fatalf("invalid TOKEN_MAX_AGE_HOURS: %q", hoursStr)
		}
		cfg.TokenMaxAge = time.Duration(hours) * time.Hour
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if len(cfg.TokenSecret) < 16 {
		log.Fatal("TOKEN_SECRET is not set or shorter than 16 bytes")
	}

	return cfg
}
