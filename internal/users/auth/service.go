// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package auth implements registration, email verification, login and the
// token lifecycle for Velora accounts.
//
// # Architecture
//
// The package follows the layered layout used across the codebase:
//
//   - service.go / tokens.go hold the business rules.
//   - store.go defines the repository interfaces; store_postgres.go
//     implements them on pgx.
//   - limiter.go throttles verification attempts through Redis.
//   - http.go exposes the flows as chi routes.
//
// Security posture: login failures are indistinguishable from one another,
// refresh tokens are single-use and stored only as digests, and
// forgot-password never reveals whether an address is registered.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/velora/velora/internal/platform/apperr"
	"github.com/velora/velora/internal/platform/mail"
	"github.com/velora/velora/internal/platform/sec"
	"github.com/velora/velora/pkg/mailaddr"
	"github.com/velora/velora/pkg/verifycode"
)

// MailQueue is the slice of the mail dispatcher the services need. Messages
// are enqueued only after the owning database write has committed.
type MailQueue interface {
	Enqueue(msg mail.Message)
}

// RegisterInput is the validated payload for account creation.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Service orchestrates the account and credential flows.
type Service struct {
	users   UserRepository
	tokens  *TokenService
	limiter AttemptLimiter
	mailer  MailQueue
	logger  *slog.Logger

	// publicBaseURL prefixes the links embedded in outbound emails.
	publicBaseURL string

	// now is swappable for tests.
	now func() time.Time
}

// NewService wires the auth service from its dependencies.
func NewService(
	users UserRepository,
	tokens *TokenService,
	limiter AttemptLimiter,
	mailer MailQueue,
	publicBaseURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		limiter:       limiter,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
		logger:        logger,
		now:           time.Now,
	}
}

/*
Register creates a new unverified account and emails its verification code.

# Parameters
  - ctx: Request context.
  - input: Validated registration payload.

# Returns
  - *User: The created account, active but unverified.
  - error: Conflict when the email is already registered.
*/
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := mailaddr.Normalize(input.Email)

	// ── 1. Hash the password ──
	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// ── 2. Stage the verification challenge ──
	code := verifycode.Generate()
	user := &User{
		Email:          email,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		PhoneNumber:    input.PhoneNumber,
		HashedPassword: passwordHash,
		IsActive:       true,
		IsVerified:     false,
		Role:           sec.RoleCustomer,
		Verification: &PendingVerification{
			Code:      code,
			ExpiresAt: verifycode.Expiry(s.now()),
		},
	}

	// ── 3. Persist, mapping duplicate email to a conflict ──
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Internal(err)
	}

	// ── 4. Send the code only after the row exists ──
	s.mailer.Enqueue(verificationEmail(user.Email, user.FirstName, code))

	s.logger.InfoContext(ctx, "user_registered", slog.Int64("user_id", user.ID))

	return user, nil
}

/*
VerifyEmail redeems a verification code and marks the account verified.

Failures are reported in a fixed order so the endpoint behaves predictably:
unknown account, inactive account, already verified, then code problems.
Wrong-code attempts are throttled per account.
*/
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email = mailaddr.Normalize(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("User")
		}
		return apperr.Internal(err)
	}

	if !user.IsActive {
		return apperr.Forbidden("Inactive user")
	}
	if user.IsVerified {
		return apperr.BadRequest("User already verified")
	}

	// Throttle before comparing so guessing burns budget even on misses.
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// Fail open: the code still expires on its own.
		s.logger.WarnContext(ctx, "verify_attempt_limiter_unavailable", slog.String("error", err.Error()))
	} else if !allowed {
		return apperr.RateLimited("Too many verification attempts. Please try again later.")
	}

	if user.Verification == nil || user.Verification.Code != code {
		return apperr.BadRequest("Invalid verification code")
	}
	if user.Verification.Expired(s.now()) {
		return apperr.BadRequest("Verification code expired")
	}

	user.IsVerified = true
	user.Verification = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "verify_attempt_limiter_reset_failed", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "user_verified", slog.Int64("user_id", user.ID))

	return nil
}

/*
Authenticate checks a credential pair and returns the account.

Unknown email, inactive account and wrong password all yield the same
unauthorized error. A correct password on an unverified account is the one
distinguishable failure, so the client can prompt for the code.
*/
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = mailaddr.Normalize(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a hash comparison anyway to keep timing flat.
			sec.CheckPasswordHash(password, "")
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, apperr.Internal(err)
	}

	if !user.IsActive {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if !sec.CheckPasswordHash(password, user.HashedPassword) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if !user.IsVerified {
		return nil, apperr.Forbidden(MsgNotVerified)
	}

	return user, nil
}

// Login authenticates the credential pair and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user_logged_in", slog.Int64("user_id", user.ID))

	return pair, nil
}

// Logout revokes the presented refresh token. It is idempotent: repeated or
// garbage tokens succeed silently.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

/*
RequestPasswordReset starts the forgot-password flow. It always succeeds
from the caller's point of view; whether a reset email went out is never
revealed, so the endpoint cannot be used to enumerate accounts.
*/
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = mailaddr.Normalize(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := sec.GenerateSecureToken(FlowTokenBytes)
	if err != nil {
		return apperr.Internal(err)
	}

	// A new request supersedes any outstanding one.
	user.PasswordReset = &PendingPasswordReset{
		Token:     token,
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	s.mailer.Enqueue(passwordResetEmail(user.Email, user.FirstName, s.publicBaseURL, token))

	s.logger.InfoContext(ctx, "password_reset_requested", slog.Int64("user_id", user.ID))

	return nil
}

/*
ResetPassword completes the forgot-password flow. On success the new
password takes effect immediately and every refresh grant is revoked, so
stolen sessions die with the old password.
*/
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.BadRequest("Invalid or expired reset token")
		}
		return apperr.Internal(err)
	}

	if user.PasswordReset == nil || user.PasswordReset.Expired(s.now()) {
		return apperr.BadRequest("Invalid or expired reset token")
	}

	passwordHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	user.HashedPassword = passwordHash
	user.PasswordReset = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password_reset_completed", slog.Int64("user_id", user.ID))

	return nil
}
