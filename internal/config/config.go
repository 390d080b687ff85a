package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every environment-driven setting. Defaults suit local
// development; production deployments must set JWT_SECRET explicitly.
type Config struct {
	Port string

	DatabaseDSN string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	RateLimitLogin  int
	RateLimitWindow time.Duration
	RedisAddr       string // optional; empty selects the in-memory limiter
	RedisPassword   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailSender   string
	AppName      string

	CORSOrigins []string
}

// Load reads configuration from the environment.
func Load() Config {
	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "commsdesk") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	return Config{
		Port: envOr("PORT", "8080"),

		DatabaseDSN: dsn,

		JWTSecret:  jwtSecret(),
		AccessTTL:  time.Duration(envInt("JWT_ACCESS_TOKEN_EXPIRES", 3600)) * time.Second,
		RefreshTTL: time.Duration(envInt("JWT_REFRESH_TOKEN_EXPIRES", 2592000)) * time.Second,

		RateLimitLogin:  envInt("RATE_LIMIT_LOGIN", 5),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW", 300)) * time.Second,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),

		SMTPHost:     envOr("MAIL_SERVER", "smtp.gmail.com"),
		SMTPPort:     envInt("MAIL_PORT", 587),
		SMTPUsername: os.Getenv("MAIL_USERNAME"),
		SMTPPassword: os.Getenv("MAIL_PASSWORD"),
		MailSender:   envOr("MAIL_DEFAULT_SENDER", "noreply@commsdesk.local"),
		AppName:      envOr("APP_NAME", "CommsDesk"),

		CORSOrigins: []string{
			envOr("FRONTEND_URL", "http://localhost:5173"),
			"http://127.0.0.1:5173",
		},
	}
}

func jwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only, never for production
	}
	return secret
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
