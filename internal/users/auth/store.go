// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by repositories. Services translate these into
// client-facing application errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTokenNotFound = errors.New("refresh token not found")
)

// UserRepository persists the User aggregate.
//
// Implementations must treat the pending value types as units: a pending
// flow is either fully present or fully absent, never half-written.
type UserRepository interface {
	// Create inserts a new user and fills in ID, CreatedAt and UpdatedAt.
	// Returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *User) error

	// FindByID returns the user with the given ID, or ErrUserNotFound.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail returns the user with the given canonical email, or
	// ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByPasswordResetToken returns the user holding the given pending
	// reset token, or ErrUserNotFound. Expiry is not filtered here; the
	// caller decides whether a stale token still matters.
	FindByPasswordResetToken(ctx context.Context, token string) (*User, error)

	// FindByPasswordChangeToken returns the user holding the given pending
	// change token, or ErrUserNotFound. Expiry is not filtered here.
	FindByPasswordChangeToken(ctx context.Context, token string) (*User, error)

	// Update persists every mutable field of user, including clearing or
	// setting the pending flows, in a single statement.
	Update(ctx context.Context, user *User) error
}

// RefreshTokenRepository persists refresh token grants. Tokens are stored
// only as digests; the raw identifier never touches the database.
type RefreshTokenRepository interface {
	// Save records a newly issued grant.
	Save(ctx context.Context, token *RefreshToken) error

	// FindActive returns the unrevoked grant with the given digest, or
	// ErrTokenNotFound. Expired-but-unrevoked rows are still returned so
	// callers can distinguish expiry from revocation.
	FindActive(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marks the grant with the given digest as revoked. Revoking a
	// digest with no matching active row is not an error.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAll revokes every active grant belonging to userID.
	RevokeAll(ctx context.Context, userID int64) error

	// DeleteExpired removes rows whose expiry predates cutoff and reports
	// how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
