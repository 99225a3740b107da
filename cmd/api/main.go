// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Command api runs the Velora HTTP API server.
//
// Startup sequence: configuration, logging, migrations, PostgreSQL, Redis,
// mail dispatcher, domain services, then the HTTP listener. Shutdown drains
// in-flight requests and the outbound mail queue.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/velora/velora/internal/api"
	"github.com/velora/velora/internal/platform/config"
	"github.com/velora/velora/internal/platform/constants"
	"github.com/velora/velora/internal/platform/mail"
	"github.com/velora/velora/internal/platform/migration"
	"github.com/velora/velora/internal/platform/postgres"
	"github.com/velora/velora/internal/platform/redis"
	"github.com/velora/velora/internal/platform/sec"
	"github.com/velora/velora/internal/users/account"
	"github.com/velora/velora/internal/users/auth"
)

func main() {
	// ── 1. Configuration & logging ──
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting",
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
	)

	// appCtx is cancelled on SIGINT/SIGTERM and bounds every background
	// goroutine (limiter cleanup, token pruning).
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 2. Schema migrations before anything touches the database ──
	must(logger, "migrations", migration.Run(cfg.MigrationPath, cfg.DatabaseURL, logger))

	// ── 3. Backing stores ──
	pool, err := postgres.NewPool(appCtx, cfg.DatabaseURL, logger)
	must(logger, "postgres", err)
	defer pool.Close()

	redisClient, err := redis.NewClient(appCtx, cfg.RedisURL, logger)
	must(logger, "redis", err)
	defer redisClient.Close()

	// ── 4. Outbound mail ──
	var sender mail.Sender
	if cfg.MailConfigured() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn("smtp not configured, emails will only be logged")
		sender = mail.NewLogSender(logger)
	}
	dispatcher := mail.NewDispatcher(sender, logger)
	defer dispatcher.Close()

	// ── 5. Domain services ──
	codec, err := sec.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm, constants.AuthIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	must(logger, "token codec", err)

	userRepo := auth.NewPostgresUserRepository(pool)
	tokenRepo := auth.NewPostgresRefreshTokenRepository(pool)
	attemptLimiter := auth.NewRedisAttemptLimiter(redisClient)

	tokenService := auth.NewTokenService(codec, tokenRepo, userRepo, logger)
	authService := auth.NewService(userRepo, tokenService, attemptLimiter, dispatcher, cfg.PublicBaseURL, logger)
	acctService := account.NewService(userRepo, tokenService, dispatcher, cfg.PublicBaseURL, logger)

	go tokenService.StartCleanup(appCtx, constants.RefreshTokenCleanupInterval)

	// ── 6. HTTP server ──
	server := api.New(appCtx, api.Deps{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Redis:       redisClient,
		TokenCodec:  codec,
		AuthHandler: auth.NewHandler(authService, tokenService),
		AcctHandler: account.NewHandler(acctService),
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run() }()

	// ── 7. Wait for shutdown signal or server failure ──
	select {
	case <-appCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		must(logger, "http server", err)
	}

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown incomplete", slog.String("error", err.Error()))
	}

	logger.Info("stopped")
}

// newLogger picks the slog handler for the environment: human-readable text
// in development, JSON everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// must aborts startup when a critical dependency fails.
func must(logger *slog.Logger, component string, err error) {
	if err != nil {
		logger.Error("startup failed",
			slog.String("component", component),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
}
