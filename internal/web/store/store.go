package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("store: not found")
)

// Store is the local persistence for the browser session: the credential
// slot read by the request client and the identity-service account record
// that lets a restart resume the signed-in session.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// WithTx runs fn inside a transaction, committing on nil error.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Credentials() Credentials
	Accounts() Accounts
}

// Tx is a transaction-scoped view of Store.
type Tx interface {
	Commit() error
	Rollback() error

	Credentials() Credentials
	Accounts() Accounts
}

// Credentials holds opaque secrets by well-known key. Values are sealed at
// rest.
type Credentials interface {
	GetCredential(ctx context.Context, key string) (string, error)
	PutCredential(ctx context.Context, key, value string) error
	DeleteCredential(ctx context.Context, key string) error
}

// Account is the signed-in identity-service account.
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Accounts persists at most one current account.
type Accounts interface {
	// GetCurrentAccount returns ErrNotFound when nobody is signed in.
	GetCurrentAccount(ctx context.Context) (Account, error)
	// SaveAccount replaces whatever account was stored before.
	SaveAccount(ctx context.Context, a Account) error
	DeleteAccounts(ctx context.Context) error
}
