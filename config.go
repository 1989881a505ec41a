package main

import (
	"os"
	"strconv"
	"time"

	"github.com/calebmartin/portfolio/internal/mailer"
)

// Config gathers everything the binary reads from the environment, so
// nothing downstream touches os.Getenv directly. A .env file is picked
// up by the godotenv autoload import in main.go.
type Config struct {
	Port    string
	Env     string // "development" or "production"
	DBPath  string
	LogFile string // empty disables file logging

	SMTP mailer.Config

	AdminUsername string
	AdminPassword string

	// Contact submission limits, per client IP.
	ContactRateLimit  int
	ContactRateWindow time.Duration

	CSRFTokenTTL time.Duration
}

func loadConfig() Config {
	cfg := Config{
		Port:    envOr("PORT", "8080"),
		Env:     envOr("APP_ENV", "development"),
		DBPath:  envOr("DB_PATH", "portfolio.db"),
		LogFile: os.Getenv("LOG_FILE"),

		SMTP: mailer.Config{
			Host:           envOr("SMTP_HOST", "smtp.gmail.com"),
			Port:           envInt("SMTP_PORT", 587),
			Username:       os.Getenv("SMTP_USER"),
			Password:       os.Getenv("SMTP_PASS"),
			From:           os.Getenv("FROM_EMAIL"),
			To:             os.Getenv("TO_EMAIL"),
			UseTLS:         envBool("SMTP_TLS", false),
			TimeoutSeconds: envInt("SMTP_TIMEOUT_SECONDS", 30),
		},

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ContactRateLimit:  envInt("CONTACT_RATE_LIMIT", 5),
		ContactRateWindow: time.Duration(envInt("CONTACT_RATE_WINDOW_SECONDS", 600)) * time.Second,

		CSRFTokenTTL: time.Duration(envInt("CSRF_TOKEN_TTL_SECONDS", 3600)) * time.Second,
	}

	// Mail stays off until credentials and a destination are set; the
	// site still runs and stores messages.
	cfg.SMTP.Enabled = cfg.SMTP.Username != "" && cfg.SMTP.Password != "" && cfg.SMTP.To != ""

	return cfg
}

func (c Config) isDev() bool {
	return c.Env == "development"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
