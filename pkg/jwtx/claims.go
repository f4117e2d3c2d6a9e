// Package jwtx reads the ID tokens issued by the identity service.
//
// Tokens are decoded without verifying their signature: this process only
// forwards them as bearer credentials, and the Budgetwise API verifies them
// on every request. The claims are used for display data (uid, email,
// name) and for deciding when a token is due for refresh.
package jwtx

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Claims are the identity-service ID token claims the client cares about.
type Claims struct {
	jwt.RegisteredClaims

	// UserID duplicates sub on identity-service tokens.
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`

	// Name is the profile display name, set when the account has one.
	Name string `json:"name,omitempty"`
}

// Peek decodes raw without verifying its signature.
func Peek(raw string) (Claims, error) {
	var c Claims
	if strings.Count(raw, ".") != 2 {
		return c, ErrMalformed
	}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return c, errors.Join(ErrMalformed, err)
	}
	if c.UID() == "" {
		return c, ErrInvalidClaim
	}
	return c, nil
}

// UID returns the account ID, preferring user_id over sub.
func (c *Claims) UID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Expiry returns exp, or the zero time if the token has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
