// Package identity talks to the external identity service that owns user
// accounts, and reports who is signed in.
//
// The service is reached over its Identity Toolkit REST API (sign-up,
// password sign-in, profile update) and its Secure Token API (refresh
// grant). Sign-in state changes are announced to subscribers through
// OnIdentityChange, one event at a time and in the order they happened.
package identity

import (
	"context"
	"strings"
)

// Identity is an authenticated principal. It is a read-only handle: tokens
// for it are minted on demand through Provider.MintToken.
type Identity struct {
	ID       string
	Email    string
	Username string
}

// Listener receives identity changes. A nil identity means signed out.
type Listener func(id *Identity)

// Provider is the identity service as the rest of the app sees it.
type Provider interface {
	SignUp(ctx context.Context, username, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error

	// MintToken returns a bearer token for id, refreshing it when it is
	// close to expiry.
	MintToken(ctx context.Context, id Identity) (string, error)

	// OnIdentityChange registers fn. fn is called first with the current
	// identity, then on every sign-in, sign-up and sign-out.
	OnIdentityChange(fn Listener) (unsubscribe func())
}

// usernameFor prefers the profile display name and falls back to the local
// part of the email address, the same fallback the Budgetwise API uses.
func usernameFor(displayName, email string) string {
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		return displayName
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
