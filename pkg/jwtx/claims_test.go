package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/budgetwise/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, c jwtx.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return raw
}

func TestPeek(t *testing.T) {
	t.Parallel()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("identity service token", func(t *testing.T) {
		raw := sign(t, jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-1", ExpiresAt: jwt.NewNumericDate(exp)},
			UserID:           "uid-1",
			Email:            "alice@example.com",
			Name:             "alice",
		})

		c, err := jwtx.Peek(raw)
		require.NoError(t, err)
		require.Equal(t, "uid-1", c.UID())
		require.Equal(t, "alice@example.com", c.Email)
		require.Equal(t, "alice", c.Name)
		require.True(t, exp.Equal(c.Expiry()))
	})

	t.Run("falls back to sub", func(t *testing.T) {
		c, err := jwtx.Peek(sign(t, jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-2"}}))
		require.NoError(t, err)
		require.Equal(t, "uid-2", c.UID())
		require.True(t, c.Expiry().IsZero())
	})

	t.Run("missing uid", func(t *testing.T) {
		_, err := jwtx.Peek(sign(t, jwtx.Claims{Email: "x@example.com"}))
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("not a jwt", func(t *testing.T) {
		for _, raw := range []string{"", "tok123", "a.b.c"} {
			_, err := jwtx.Peek(raw)
			require.ErrorIs(t, err, jwtx.ErrMalformed, "input %q", raw)
		}
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(now.Add(time.Minute))}}
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrNotYetValid)
	})

	t.Run("no exp or nbf", func(t *testing.T) {
		require.NoError(t, (&jwtx.Claims{}).ValidateExpiry())
	})

	t.Run("leeway", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second))}}
		require.NoError(t, c.ValidateExpiryWithLeeway(30*time.Second))
		require.ErrorIs(t, c.ValidateExpiryWithLeeway(5*time.Second), jwtx.ErrExpired)
	})
}
