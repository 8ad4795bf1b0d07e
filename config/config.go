package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Notification providers
const (
	NotifyNone     = "none"
	NotifySMTP     = "smtp"
	NotifySendGrid = "sendgrid"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	// Submission store
	StoreDriver     string
	DBUrl           string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	StoreTimeout    time.Duration
	// Cloudflare Turnstile
	TurnstileSecretKey string
	TurnstileVerifyURL string
	CaptchaTimeout     time.Duration
	// CORS
	AllowedOrigins []string
	PreviewSuffix  string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitContactLimit  int
	RateLimitWindowSeconds int
	// Owner notification
	NotifyProvider   string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SendGridAPIKey   string
	ContactEmailTo   string
	ContactEmailFrom string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitWindow is the rate limiting window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	// Only effective locally; production sets real environment variables
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		// Submission store
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBUrl:           getEnv("DATABASE_URL", ""),
		MongoURI:        getEnv("MONGODB_URI", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "portfolio"),
		MongoCollection: getEnv("MONGODB_COLLECTION", "contacts"),
		StoreTimeout:    getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		// Cloudflare Turnstile
		TurnstileSecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
		TurnstileVerifyURL: getEnv("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		CaptchaTimeout:     getEnvDuration("CAPTCHA_TIMEOUT", 5*time.Second),
		// CORS
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		PreviewSuffix:  getEnv("CORS_PREVIEW_SUFFIX", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration (with sensible defaults)
		RateLimitContactLimit:  getEnvInt("RATE_LIMIT_CONTACT_LIMIT", 5),    // 5 messages per window
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 600), // 10 minute window
		// Owner notification
		NotifyProvider:   strings.ToLower(getEnv("NOTIFY_PROVIDER", NotifyNone)),
		SMTPHost:         getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		ContactEmailTo:   getEnv("CONTACT_EMAIL_TO", ""),
		ContactEmailFrom: getEnv("CONTACT_EMAIL_FROM", ""),
	}

	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DBUrl == "" {
			return nil, fmt.Errorf("config: DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("config: MONGODB_URI is required when STORE_DRIVER=%s", StoreMongo)
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.NotifyProvider {
	case NotifyNone, NotifySMTP, NotifySendGrid:
	default:
		return nil, fmt.Errorf("config: unknown NOTIFY_PROVIDER %q", cfg.NotifyProvider)
	}

	if cfg.RateLimitContactLimit <= 0 || cfg.RateLimitWindowSeconds <= 0 {
		return nil, fmt.Errorf("config: RATE_LIMIT_CONTACT_LIMIT and RATE_LIMIT_WINDOW_SECONDS must be positive")
	}

	// Missing secret fails closed at request time, not at startup
	if cfg.TurnstileSecretKey == "" {
		log.Println("WARNING: TURNSTILE_SECRET_KEY is missing. Every submission will fail verification.")
	}

	// Log Redis configuration status (helpful for debugging)
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	if cfg.NotifyProvider != NotifyNone && cfg.ContactEmailTo == "" {
		log.Println("WARNING: CONTACT_EMAIL_TO is missing. Owner notifications will be skipped.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
