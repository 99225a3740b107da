// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via narrow interfaces ([middleware.TokenVerifier]).
package sec

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Types

const (
	// TokenTypeAccess marks short-lived tokens that authorize API calls.
	TokenTypeAccess = "access"

	// TokenTypeRefresh marks long-lived, single-use tokens exchangeable
	// for a new pair.
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for any signature, structure, expiry, or
// type-discriminant failure during decoding. Callers must not branch on the
// underlying cause: all failures are equivalent at the API boundary.
var ErrInvalidToken = errors.New("sec: invalid token")

// # Claim Variants

// AccessClaims is the payload embedded inside a JWT access token.
//
// # Why custom claims?
//
// By embedding the UserID and Role directly inside the JWT, the
// authentication middleware can reconstruct the active user context WITHOUT
// querying the database on every single API request. The email travels in the
// registered `sub` claim.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID    int64  `json:"uid"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
}

// Email returns the account email carried in the `sub` claim.
func (c *AccessClaims) Email() string { return c.Subject }

// RefreshClaims is the payload embedded inside a JWT refresh token.
//
// It shares the access shape plus the unique token identifier (`jti`, carried
// in RegisteredClaims.ID). The raw jti never touches persistent storage —
// only its SHA-256 digest does, via [HashTokenID].
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID    int64  `json:"uid"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
}

// Email returns the account email carried in the `sub` claim.
func (c *RefreshClaims) Email() string { return c.Subject }

// TokenID returns the unique per-token identifier (`jti`).
func (c *RefreshClaims) TokenID() string { return c.ID }

// # Codec

// TokenCodec signs and verifies JWT tokens using a shared HMAC secret.
//
// # Algorithm Policy
//
// Only the HMAC family is accepted. Access and refresh tokens share one
// signing secret; asymmetric methods would require a key pair and are
// rejected at construction time.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// refreshTokenIDLength is the byte length of the random jti identifier.
const refreshTokenIDLength = 32

// NewTokenCodec creates a TokenCodec for the given secret and algorithm name.
//
// # Parameters
//   - secret: The shared HMAC signing secret.
//   - algorithm: One of "HS256", "HS384", "HS512".
//   - issuer: The standard `iss` claim stamped on every token.
//   - accessTTL / refreshTTL: Lifetimes for the two token classes.
func NewTokenCodec(secret, algorithm, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok || method == nil {
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", algorithm)
	}

	return &TokenCodec{
		secret:     []byte(secret),
		method:     method,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// SignAccess creates a signed access token for the given user identity.
func (codec *TokenCodec) SignAccess(email string, userID int64, role string) (string, error) {
	currentTime := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(codec.accessTTL)),
		},
		UserID:    userID,
		Role:      role,
		TokenType: TokenTypeAccess,
	}

	signedToken, err := jwt.NewWithClaims(codec.method, claims).SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// SignRefresh creates a signed refresh token with a fresh unique identifier.
//
// # Returns
//   - The signed token string.
//   - The raw jti (callers hash it via [HashTokenID] before persisting).
//   - The token's expiry timestamp.
func (codec *TokenCodec) SignRefresh(email string, userID int64, role string) (string, string, time.Time, error) {
	tokenID, err := GenerateSecureToken(refreshTokenIDLength)
	if err != nil {
		return "", "", time.Time{}, err
	}

	currentTime := time.Now()
	expiresAt := currentTime.Add(codec.refreshTTL)

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    codec.issuer,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		Role:      role,
		TokenType: TokenTypeRefresh,
	}

	signedToken, err := jwt.NewWithClaims(codec.method, claims).SignedString(codec.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return signedToken, tokenID, expiresAt, nil
}

// DecodeAccess verifies the signature and validity of an access token string.
//
// # Flow
//  1. Verify signature + registered claims (exp enforced by the jwt library).
//  2. Check the `type` discriminant immediately after decode.
//  3. Check required claim presence.
func (codec *TokenCodec) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := codec.decodeInto(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}

	if claims.Subject == "" || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}

	return claims, nil
}

// DecodeRefresh verifies the signature and validity of a refresh token string.
//
// It enforces the refresh `type` discriminant and that every required claim
// (subject, user id, role, jti) is present.
func (codec *TokenCodec) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := codec.decodeInto(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}

	if claims.Subject == "" || claims.UserID == 0 || claims.Role == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}

	return claims, nil
}

// decodeInto parses and validates the token into the provided claim struct.
func (codec *TokenCodec) decodeInto(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return codec.secret, nil
		},
		jwt.WithValidMethods([]string{codec.method.Alg()}),
	)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}

// # Token Identifier Hashing

// HashTokenID returns the hex-encoded SHA-256 digest of a refresh token's jti.
//
// The store only ever sees this digest, so a leaked database row can never be
// turned back into a redeemable token.
func HashTokenID(tokenID string) string {
	digest := sha256.Sum256([]byte(tokenID))
	return hex.EncodeToString(digest[:])
}
