package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Env         string `envconfig:"ENV" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// SQLitePath is used when DATABASE_URL is empty.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"nexthire.db"`
	RedisURL   string `envconfig:"REDIS_URL"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	MailFrom string `envconfig:"MAIL_FROM" default:"NextHire <no-reply@nexthire.local>"`

	ResumeParserURL string        `envconfig:"RESUME_PARSER_URL"`
	RecommenderURL  string        `envconfig:"RECOMMENDER_URL"`
	ServiceTimeout  time.Duration `envconfig:"SERVICE_TIMEOUT" default:"10s"`
	GoogleClientID  string        `envconfig:"GOOGLE_CLIENT_ID"`

	OpenRouterKey   string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterURL   string `envconfig:"OPENROUTER_URL"`
	OpenRouterModel string `envconfig:"OPENROUTER_MODEL"`

	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`

	OTelEndpoint string `envconfig:"OTEL_EXPORTER_ENDPOINT"`

	// Rate limiting
	RateLimitWhitelist []string `envconfig:"RATE_LIMIT_WHITELIST"` // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     `envconfig:"AUTO_BLOCK_ENABLED" default:"false"`
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Parse is Load without the panic.
func Parse() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.RateLimitWhitelist = trimAll(cfg.RateLimitWhitelist)
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("config: JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "development-only-secret"
	}

	// In production, require database and redis URLs
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("config: DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("config: REDIS_URL is required in production")
		}
	}

	return &cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func trimAll(in []string) []string {
	var out []string
	for _, entry := range in {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
