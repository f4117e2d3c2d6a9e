// Package credstore holds the bearer token the request client attaches to
// outgoing API calls.
//
// The in-memory value is authoritative. An optional persister mirrors it so
// the token survives a restart; persistence failures are logged and never
// reach callers, matching the no-error contract of Set, Get and Clear.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
)

// Key is the well-known slot the token is persisted under.
const Key = "budgetwise.token"

const persistTimeout = 2 * time.Second

type Store struct {
	mu    sync.RWMutex
	token string

	persist store.Credentials
	logger  *slog.Logger
}

type Option func(*Store)

// WithPersistence mirrors every change into p.
func WithPersistence(p store.Credentials) Option {
	return func(s *Store) { s.persist = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted token, if any, into memory.
func (s *Store) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	tok, err := s.persist.GetCredential(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore credential: %w", err)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	s.logger.Debug("credential restored", "fp", cryptox.ShortFingerprint(tok))
	return nil
}

// Set replaces the stored token. An empty token is the same as Clear.
func (s *Store) Set(token string) {
	if token == "" {
		s.Clear()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.write(func(ctx context.Context) error {
		return s.persist.PutCredential(ctx, Key, token)
	})
}

// Get returns the stored token and whether one is present. Presence says
// nothing about validity.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Clear removes the token. Clearing an empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.write(func(ctx context.Context) error {
		return s.persist.DeleteCredential(ctx, Key)
	})
}

// write runs under s.mu so the persisted order matches the in-memory order.
func (s *Store) write(fn func(context.Context) error) {
	if s.persist == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Warn("credential persistence failed", "error", err)
	}
}
