// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureToken returns a URL-safe, high-entropy random token.
//
// # Usage
//
// These tokens gate the password reset and password change flows, where the
// token is the only credential presented. byteLength is the entropy in bytes
// before encoding (32 bytes = 256 bits).
func GenerateSecureToken(byteLength int) (string, error) {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
