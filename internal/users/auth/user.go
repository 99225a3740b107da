// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"time"

	"github.com/velora/velora/internal/platform/sec"
)

// User is the account aggregate. Credential state (hash, flags, pending
// flows) lives here; the service layer enforces every transition.
type User struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	PhoneNumber    string
	HashedPassword string
	IsActive       bool
	IsVerified     bool
	Role           sec.UserRole

	// Verification is the pending email-verification challenge, nil once
	// the account is verified.
	Verification *PendingVerification

	// PasswordChange is a staged password awaiting confirmation via the
	// emailed link, nil when no change is in flight.
	PasswordChange *PendingPasswordChange

	// PasswordReset is an outstanding forgot-password token, nil when no
	// reset is in flight.
	PasswordReset *PendingPasswordReset

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingVerification is the code a new account must echo back to prove
// ownership of its email address. Code and expiry always travel together.
type PendingVerification struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer accepted at now.
func (p *PendingVerification) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// PendingPasswordChange stages an already-hashed replacement password until
// the account owner confirms or denies it through the emailed links.
type PendingPasswordChange struct {
	PasswordHash string
	Token        string
	ExpiresAt    time.Time
}

// Expired reports whether the confirmation window has closed at now.
func (p *PendingPasswordChange) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// PendingPasswordReset is an outstanding forgot-password token.
type PendingPasswordReset struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the reset window has closed at now.
func (p *PendingPasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// RefreshToken is a stored grant of the ability to mint new token pairs.
// Only the SHA-256 digest of the token's identifier is persisted.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the stored token can still be redeemed at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
