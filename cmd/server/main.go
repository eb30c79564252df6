package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/config"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/assistant"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/email"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/recommender"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/resume"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/realtime"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, "nexthire", cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry initialization failed")
	}

	db := openStore(ctx, cfg, logger)
	defer db.Close()

	// Redis is optional in development: without it there is no rate
	// limiting, no shared presence and no resend cooldown.
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	var registry realtime.Registry = realtime.NewMemoryRegistry()
	if redisStore != nil {
		registry = realtime.NewPresenceRegistry(registry, redisStore, logger)
	}
	dispatcher := realtime.NewDispatcher(db, db, db, registry, logger)
	signaling := realtime.NewSignaling(registry, realtime.InterviewAccessFromStore(db), logger)
	wsServer := realtime.NewServer(registry, dispatcher, signaling, cfg.AllowedOrigins, logger)

	var sender email.Sender = email.NewLogSender(logger)
	if cfg.MailEnabled() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn().Msg("SMTP not configured, emails will only be logged")
	}

	deps := handlers.Deps{
		Store:      db,
		Redis:      redisStore,
		Tokens:     auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Mailer:     email.NewMailer(sender, cfg.FrontendURL),
		Dispatcher: dispatcher,
		Registry:   registry,
		UploadDir:  cfg.UploadDir,
		// Cookies only travel over HTTPS outside development.
		SecureCookies: !cfg.IsDevelopment(),
		Logger:        logger,
	}
	if cfg.GoogleClientID != "" {
		deps.Google = auth.NewIDTokenVerifier(cfg.GoogleClientID)
	}
	if cfg.ResumeParserURL != "" {
		// Parsing is slower than the other collaborators; keep the client default.
		deps.Parser = resume.NewClient(cfg.ResumeParserURL, 0)
	}
	if cfg.RecommenderURL != "" {
		deps.Recommender = recommender.NewClient(cfg.RecommenderURL, cfg.ServiceTimeout)
	}
	if cfg.OpenRouterKey != "" {
		deps.Assistant = assistant.NewClient(assistant.Config{
			URL:    cfg.OpenRouterURL,
			APIKey: cfg.OpenRouterKey,
			Model:  cfg.OpenRouterModel,
		})
	}

	router := api.NewRouter(logger, deps, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
		Realtime: wsServer,
	})

	// No WriteTimeout: it would cut long-lived websocket connections.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting NextHire server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

// openStore connects to Postgres when DATABASE_URL is set, running pending
// migrations first, and falls back to a local SQLite file otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) store.DataStore {
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("connected to PostgreSQL")
		return pg
	}

	sqlite, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open failed")
	}
	logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	return sqlite
}
