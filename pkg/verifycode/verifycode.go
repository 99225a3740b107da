// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package verifycode generates the short numeric codes used for email
// verification.
package verifycode

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// codeMin and codeMax bound the six-digit code range, inclusive.
	codeMin = 100000
	codeMax = 999999

	// DefaultTTL is how long a verification code remains valid.
	DefaultTTL = 10 * time.Minute
)

// Generate returns a uniformly random six-digit code as a string. Codes are
// deliberately short-lived and attempt-limited; they are not bearer secrets.
func Generate() string {
	return fmt.Sprintf("%d", codeMin+rand.IntN(codeMax-codeMin+1))
}

// Expiry returns the instant at which a code generated at now stops being
// accepted.
func Expiry(now time.Time) time.Time {
	return now.Add(DefaultTTL)
}
