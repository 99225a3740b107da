// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/velora/velora/internal/platform/apperr"
	"github.com/velora/velora/internal/platform/sec"
)

// TokenPair is the credential bundle handed to a client after a successful
// login or rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenService issues, rotates and revokes token pairs. Refresh tokens are
// single-use: rotation revokes the presented grant before minting its
// replacement.
type TokenService struct {
	codec  *sec.TokenCodec
	tokens RefreshTokenRepository
	users  UserRepository
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewTokenService wires a TokenService from its dependencies.
func NewTokenService(codec *sec.TokenCodec, tokens RefreshTokenRepository, users UserRepository, logger *slog.Logger) *TokenService {
	return &TokenService{
		codec:  codec,
		tokens: tokens,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

/*
IssuePair mints a fresh access/refresh pair for user and records the
refresh grant.

# Parameters
  - ctx: Request context.
  - user: The authenticated account.

# Returns
  - *TokenPair: The signed pair with token_type "bearer".
  - error: Internal error if signing or persistence fails.
*/
func (s *TokenService) IssuePair(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, err := s.codec.SignAccess(user.Email, user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, tokenID, expiresAt, err := s.codec.SignRefresh(user.Email, user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	grant := &RefreshToken{
		UserID:    user.ID,
		TokenHash: sec.HashTokenID(tokenID),
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Save(ctx, grant); err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

/*
Rotate redeems a refresh token for a new pair. The presented grant is
revoked before the replacement is issued, so each refresh token works
exactly once; replaying a rotated token fails.

Every failure returns the same unauthorized error so callers cannot probe
which check rejected them.

# Parameters
  - ctx: Request context.
  - refreshToken: The raw refresh JWT presented by the client.

# Returns
  - *TokenPair: A fresh pair on success.
  - error: Unauthorized for any invalid, expired, revoked or orphaned
    token, or when the owning account is inactive.
*/
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized(MsgInvalidToken)
	}

	tokenHash := sec.HashTokenID(claims.TokenID())

	grant, err := s.tokens.FindActive(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}

	// The stored expiry is authoritative even if the JWT itself validated.
	if !grant.Usable(s.now()) {
		return nil, apperr.Unauthorized(MsgInvalidToken)
	}

	user, err := s.users.FindByID(ctx, grant.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(MsgInvalidToken)
	}

	// Revoke before reissue: a crash between the two steps costs the
	// client a login, never grants a second live token.
	if err := s.tokens.Revoke(ctx, tokenHash); err != nil {
		return nil, apperr.Internal(err)
	}

	pair, err := s.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "refresh_token_rotated", slog.Int64("user_id", user.ID))

	return pair, nil
}

/*
Revoke invalidates a single refresh token. Undecodable tokens are a silent
no-op: logout must be idempotent and must not leak whether a token was ever
valid.
*/
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, sec.HashTokenID(claims.TokenID())); err != nil {
		return apperr.Internal(err)
	}

	return nil
}

// RevokeAll invalidates every active refresh grant for userID. Used on
// password reset, confirmed password change and account deactivation.
func (s *TokenService) RevokeAll(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "refresh_tokens_revoked_all", slog.Int64("user_id", userID))

	return nil
}

// StartCleanup deletes expired refresh rows on the given interval until ctx
// is cancelled.
func (s *TokenService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.tokens.DeleteExpired(ctx, s.now())
			if err != nil {
				s.logger.ErrorContext(ctx, "refresh_token_cleanup_failed", slog.String("error", err.Error()))
				continue
			}
			if deleted > 0 {
				s.logger.InfoContext(ctx, "refresh_token_cleanup", slog.Int64("deleted", deleted))
			}
		}
	}
}
