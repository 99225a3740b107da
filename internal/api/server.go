// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package api assembles the HTTP server: middleware chain, route mounting
// and graceful lifecycle.
//
// # Architecture
//
// This is the composition root for the HTTP surface. Domain handlers are
// built in cmd/api/main.go and handed in here; the package owns only the
// wiring (chi router, middleware order, timeouts) and the health endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/velora/velora/internal/platform/config"
	"github.com/velora/velora/internal/platform/constants"
	"github.com/velora/velora/internal/platform/middleware"
	"github.com/velora/velora/internal/users/account"
	"github.com/velora/velora/internal/users/auth"
)

// Server owns the HTTP listener and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Deps carries everything the server needs to mount its routes.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	TokenCodec  middleware.TokenVerifier
	AuthHandler *auth.Handler
	AcctHandler *account.Handler
}

// New builds the fully wired HTTP server. The provided ctx bounds the
// lifetime of the rate limiter cleanup goroutines.
func New(ctx context.Context, deps Deps) *Server {
	router := chi.NewRouter()

	// ── 1. Global middleware chain, outermost first ──
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(middleware.PanicRecovery(deps.Logger))
	router.Use(middleware.CORS(deps.Config))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))

	// Authentication is resolved globally so rate limiters can key on the
	// user id; individual routes opt in to RequireAuth.
	router.Use(middleware.Authenticate(deps.TokenCodec))

	globalLimiter := middleware.NewLimiter(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)
	router.Use(globalLimiter.Middleware())

	// ── 2. Per-flow rate budgets ──
	passwordFlow := middleware.NewLimiterPerMinute(ctx, constants.PasswordFlowRatePerMinute)
	authLimits := auth.RouteLimits{
		Login:     middleware.NewLimiterPerMinute(ctx, constants.LoginRatePerMinute).Middleware(),
		Register:  middleware.NewLimiterPerMinute(ctx, constants.RegisterRatePerMinute).Middleware(),
		TokenFlow: middleware.NewLimiterPerMinute(ctx, constants.TokenFlowRatePerMinute).Middleware(),
		Password:  passwordFlow.Middleware(),
	}
	acctMiddlewares := account.Middlewares{
		RequireAuth:  middleware.RequireAuth,
		PasswordFlow: passwordFlow.Middleware(),
	}

	// ── 3. Routes ──
	router.Get("/health", healthHandler(deps.Pool, deps.Redis))
	router.Get("/ready", readinessHandler(deps.Pool, deps.Redis))

	router.Route("/api/v1", func(apiRouter chi.Router) {
		apiRouter.Mount("/auth", deps.AuthHandler.Routes(authLimits))
		apiRouter.Mount("/users", deps.AcctHandler.Routes(acctMiddlewares))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + deps.Config.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		logger: deps.Logger,
	}
}

// Run starts the listener and blocks until the server is shut down.
func (s *Server) Run() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: server failed: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
