// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInputBytes is bcrypt's hard input limit. Anything beyond byte 72
// is silently ignored by the algorithm, so we truncate explicitly on BOTH the
// hash and verify paths to keep the two sides consistent.
const bcryptMaxInputBytes = 72

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// The empty string is a legal input and hashes like any other value.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword(truncateForBcrypt(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
// The comparison inside bcrypt is constant-time with respect to correctness.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), truncateForBcrypt(plainTextPassword))
	return err == nil
}

// truncateForBcrypt caps the password at 72 bytes (not runes).
func truncateForBcrypt(password string) []byte {
	raw := []byte(password)
	if len(raw) > bcryptMaxInputBytes {
		raw = raw[:bcryptMaxInputBytes]
	}
	return raw
}
