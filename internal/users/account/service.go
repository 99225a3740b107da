// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package account implements the self-service operations of a logged-in
// Velora user: profile access, the confirm/deny password change flow and
// account deactivation.
//
// # Architecture
//
// The package reuses the auth package's repositories and token service; it
// adds no storage of its own. Sensitive operations (password change,
// deactivation) require the current password even on an authenticated
// session, so a stolen access token alone cannot take over the account.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/velora/velora/internal/platform/apperr"
	"github.com/velora/velora/internal/platform/sec"
	"github.com/velora/velora/internal/users/auth"
)

// Service orchestrates the self-service account operations.
type Service struct {
	users  auth.UserRepository
	tokens *auth.TokenService
	mailer auth.MailQueue
	logger *slog.Logger

	// publicBaseURL prefixes the links embedded in outbound emails.
	publicBaseURL string

	// now is swappable for tests.
	now func() time.Time
}

// NewService wires the account service from its dependencies.
func NewService(
	users auth.UserRepository,
	tokens *auth.TokenService,
	mailer auth.MailQueue,
	publicBaseURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
		logger:        logger,
		now:           time.Now,
	}
}

// Profile returns the account behind an authenticated request. A token
// whose account no longer exists or was deactivated is treated as invalid.
func (s *Service) Profile(ctx context.Context, userID int64) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.Unauthorized(auth.MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(auth.MsgInvalidToken)
	}

	return user, nil
}

/*
RequestPasswordChange stages a new password for an authenticated user. The
replacement is hashed and parked alongside a confirmation token; nothing
changes until the owner clicks the emailed confirm link. The current
password must be supplied again.

# Returns
  - error: Unauthorized when the current password is wrong.
*/
func (s *Service) RequestPasswordChange(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.HashedPassword) {
		return apperr.Unauthorized("Incorrect password")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	token, err := sec.GenerateSecureToken(auth.FlowTokenBytes)
	if err != nil {
		return apperr.Internal(err)
	}

	// A new request supersedes any outstanding one.
	user.PasswordChange = &auth.PendingPasswordChange{
		PasswordHash: newHash,
		Token:        token,
		ExpiresAt:    s.now().Add(auth.PasswordChangeTTL),
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	s.mailer.Enqueue(passwordChangeEmail(user.Email, user.FirstName, s.publicBaseURL, token))

	s.logger.InfoContext(ctx, "password_change_requested", slog.Int64("user_id", user.ID))

	return nil
}

/*
ConfirmPasswordChange applies a staged password. The token must match an
in-flight change and still be inside its window. Every refresh grant is
revoked on success so open sessions must log in with the new password.
*/
func (s *Service) ConfirmPasswordChange(ctx context.Context, token string) error {
	user, err := s.users.FindByPasswordChangeToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperr.BadRequest("Invalid or expired confirmation token")
		}
		return apperr.Internal(err)
	}

	if user.PasswordChange == nil || user.PasswordChange.Expired(s.now()) {
		return apperr.BadRequest("Invalid or expired confirmation token")
	}

	user.HashedPassword = user.PasswordChange.PasswordHash
	user.PasswordChange = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password_change_confirmed", slog.Int64("user_id", user.ID))

	return nil
}

/*
DenyPasswordChange discards a staged password and alerts the owner.

The token is matched without an expiry check: a user reporting "this wasn't
me" must always be able to kill the request, even a stale one. Every
refresh grant is revoked and a security alert is emailed: a denied change
means someone else knew the current password, so any open session may be
theirs.
*/
func (s *Service) DenyPasswordChange(ctx context.Context, token string) error {
	user, err := s.users.FindByPasswordChangeToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperr.BadRequest("Invalid confirmation token")
		}
		return apperr.Internal(err)
	}

	if user.PasswordChange == nil {
		return apperr.BadRequest("Invalid confirmation token")
	}

	user.PasswordChange = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	s.mailer.Enqueue(securityAlertEmail(user.Email, user.FirstName))

	s.logger.WarnContext(ctx, "password_change_denied", slog.Int64("user_id", user.ID))

	return nil
}

/*
Deactivate disables the account after re-checking the password. Every
refresh grant is revoked first, so no session survives the switch.
*/
func (s *Service) Deactivate(ctx context.Context, userID int64, password string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(password, user.HashedPassword) {
		return apperr.Unauthorized("Incorrect password")
	}

	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "account_deactivated", slog.Int64("user_id", user.ID))

	return nil
}
