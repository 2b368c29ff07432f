package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	MigrationsPath string
	RedisAddr      string
	Timezone       string

	JWTSecret            string
	OperatorUsername     string
	OperatorPasswordHash string
	GoogleClientID       string
	GoogleAllowedEmails  []string

	EmailFrom     string
	EmailFromName string
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string

	StatsRefreshInterval time.Duration
	StatsTTL             time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
	ShutdownTimeout      time.Duration
}

// Load reads environment variables and .env (if present). An empty
// DATABASE_URL selects the in-memory store; an empty REDIS_ADDR disables the
// statistics cache and receipt e-mails.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		Timezone:       getEnv("TIMEZONE", "Local"),

		JWTSecret:            os.Getenv("JWT_SECRET"),
		OperatorUsername:     getEnv("OPERATOR_USERNAME", "admin"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleAllowedEmails:  getList("GOOGLE_ALLOWED_EMAILS"),

		EmailFrom:     getEnv("EMAIL_FROM", "noreply@gymdesk.local"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "GymDesk"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "25"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),

		StatsRefreshInterval: getDuration("STATS_REFRESH_INTERVAL", time.Minute),
		StatsTTL:             getDuration("STATS_TTL", 5*time.Minute),
		RateLimitRPS:         getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:       getInt("RATE_LIMIT_BURST", 20),
		ShutdownTimeout:      getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.OperatorPasswordHash == "" && cfg.GoogleClientID == "" {
		return cfg, errors.New("either OPERATOR_PASSWORD_HASH or GOOGLE_CLIENT_ID is required")
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Location resolves Timezone; calendar days (check-in guard, daily revenue)
// are computed in it.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
