package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FRONTEND_URL", "http://localhost:3000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Parse()
	req.NoError(err)
	req.True(cfg.IsDevelopment())
	req.Equal(time.Hour, cfg.TokenTTL)
	req.NotEmpty(cfg.JWTSecret)
	req.Equal([]string{"http://localhost:3000"}, cfg.AllowedOrigins)
	req.False(cfg.MailEnabled())
}

func TestParse_Lists(t *testing.T) {
	req := require.New(t)
	t.Setenv("ENV", "development")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.0/8 , 127.0.0.1,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse()
	req.NoError(err)
	req.Equal([]string{"10.0.0.0/8", "127.0.0.1"}, cfg.RateLimitWhitelist)
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestParse_ProductionRequiresSecrets(t *testing.T) {
	req := require.New(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("REDIS_URL", "redis://x")

	_, err := Parse()
	req.ErrorContains(err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("REDIS_URL", "")
	_, err = Parse()
	req.ErrorContains(err, "REDIS_URL")

	req.Panics(func() { Load() })
}
