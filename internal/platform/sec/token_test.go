// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("unit-test-secret", "HS256", "velora.shop", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodecRejectsBadConfig(t *testing.T) {
	_, err := NewTokenCodec("", "HS256", "velora.shop", time.Minute, time.Hour)
	assert.Error(t, err)

	// Asymmetric and unknown algorithms are refused up front.
	for _, alg := range []string{"RS256", "ES256", "none", "HS-bogus"} {
		_, err := NewTokenCodec("secret", alg, "velora.shop", time.Minute, time.Hour)
		assert.Error(t, err, "algorithm %s should be rejected", alg)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.SignAccess("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)

	claims, err := codec.DecodeAccess(signed)
	require.NoError(t, err)

	assert.Equal(t, "shopper@velora.shop", claims.Email())
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, "velora.shop", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	signed, tokenID, expiresAt, err := codec.SignRefresh("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)
	assert.Len(t, tokenID, 43)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := codec.DecodeRefresh(signed)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.TokenID())
	assert.EqualValues(t, 42, claims.UserID)
}

func TestDecodeEnforcesTypeDiscriminant(t *testing.T) {
	codec := newTestCodec(t)

	access, err := codec.SignAccess("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)
	refresh, _, _, err := codec.SignRefresh("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)

	// Each decoder rejects the other class of token.
	_, err = codec.DecodeRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.DecodeAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewTokenCodec("a-different-secret", "HS256", "velora.shop", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	signed, err := codec.SignAccess("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)

	_, err = other.DecodeAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	codec, err := NewTokenCodec("secret", "HS256", "velora.shop", -time.Minute, -time.Minute)
	require.NoError(t, err)

	signed, err := codec.SignAccess("shopper@velora.shop", 42, "customer")
	require.NoError(t, err)

	_, err = codec.DecodeAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)

	for _, input := range []string{"", "x", "a.b.c", "not a jwt at all"} {
		_, err := codec.DecodeAccess(input)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestHashTokenIDIsStableAndOpaque(t *testing.T) {
	first := HashTokenID("some-token-id")
	second := HashTokenID("some-token-id")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, HashTokenID("other-token-id"))
}
