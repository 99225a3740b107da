// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import "time"

// Lifetimes and sizes for the credential flows. Access/refresh lifetimes
// come from configuration; everything here is fixed policy.
const (
	// PasswordResetTTL is the validity window of a forgot-password token.
	PasswordResetTTL = 15 * time.Minute

	// PasswordChangeTTL is the confirmation window of a staged password
	// change.
	PasswordChangeTTL = 15 * time.Minute

	// FlowTokenBytes is the entropy, in bytes, of reset and change tokens
	// before URL-safe encoding.
	FlowTokenBytes = 32

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxPasswordLength caps inputs well above the bcrypt truncation
	// boundary so oversized requests are rejected loudly.
	MaxPasswordLength = 128

	// MaxVerifyAttempts is how many wrong codes an account may submit per
	// attempt window before verification is throttled.
	MaxVerifyAttempts = 5

	// VerifyAttemptWindow is the sliding window for MaxVerifyAttempts.
	VerifyAttemptWindow = 10 * time.Minute
)

// Client-facing messages shared across handlers. Login failures are
// deliberately uniform so responses do not reveal which check failed.
const (
	MsgInvalidCredentials = "Incorrect email or password"
	MsgNotVerified        = "Account not verified. Please check your email for verification code."
	MsgInvalidToken       = "Could not validate credentials"
	MsgResetRequested     = "If the email exists, a password reset link has been sent"
)
