// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package mailaddr canonicalizes email addresses so that lookups and unique
// constraints behave consistently regardless of how the address was typed.
package mailaddr

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

/*
Normalize returns the canonical form of an email address.

The address is trimmed, Unicode-normalized to NFC, and lowercased. Two
addresses that normalize to the same string are treated as the same account
throughout the application.

# Parameters
  - address: The raw address as entered by a user.

# Returns
  - string: The canonical address.
*/
func Normalize(address string) string {
	trimmed := strings.TrimSpace(address)
	normalized := norm.NFC.String(trimmed)
	return strings.ToLower(normalized)
}
