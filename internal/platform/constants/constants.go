// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Per-endpoint-family budgets and client tracking TTLs.
  - Security: JWT issuer identity.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "velora-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting
//
// Budgets are per client (authenticated user id when available, source IP
// otherwise), expressed as sustained requests-per-minute with a small burst.

const (
	// DefaultRateLimitRPS is the requests per second allowed per client globally.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the global limiter.
	DefaultRateLimitBurst = 150

	// LoginRatePerMinute bounds credential-guessing on /auth/token.
	LoginRatePerMinute = 5

	// RegisterRatePerMinute bounds account-creation spam on /auth/register.
	RegisterRatePerMinute = 3

	// TokenFlowRatePerMinute covers /auth/verify, /auth/refresh and /auth/logout.
	TokenFlowRatePerMinute = 10

	// PasswordFlowRatePerMinute covers the forgot/reset/change password endpoints.
	PasswordFlowRatePerMinute = 5

	// RateLimitCleanupInterval is how often idle client entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Background Maintenance

const (
	// RefreshTokenCleanupInterval is how often expired refresh token rows
	// are purged from the database.
	RefreshTokenCleanupInterval = 1 * time.Hour
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "velora.shop"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixVerifyAttempts = "auth:verify_attempts:"
)
