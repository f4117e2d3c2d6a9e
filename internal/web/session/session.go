// Package session tracks who is signed in to this process and keeps the
// credential store in step with it.
//
// A Session starts out loading. The first identity event from the provider
// settles it; after that Loading is false for the rest of the process. Every
// event with an identity mints a fresh token into the credential store, every
// event without one clears it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
)

const mintTimeout = 10 * time.Second

// TokenStore is the slice of the credential store the session writes to.
type TokenStore interface {
	Set(token string)
	Get() (string, bool)
	Clear()
}

// State is a consistent snapshot of the session.
type State struct {
	Identity *identity.Identity
	Loading  bool
}

// Authenticated reports whether the guard should let the request through.
func (s State) Authenticated() bool { return !s.Loading && s.Identity != nil }

type Session struct {
	provider identity.Provider
	creds    TokenStore
	logger   *slog.Logger

	mu       sync.RWMutex
	identity *identity.Identity
	loading  bool
	changed  chan struct{} // closed and replaced on every state change
	ready    chan struct{}

	// eventMu serialises event handling with the refresher and with the
	// token top-up in Login, so a stale token never lands after a sign-out.
	eventMu sync.Mutex

	unsubscribe func()
	startOnce   sync.Once
	closeOnce   sync.Once

	refresher *refresher
}

func New(provider identity.Provider, creds TokenStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		provider: provider,
		creds:    creds,
		logger:   logger.With("component", "session"),
		loading:  true,
		changed:  make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Start subscribes to identity changes.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.unsubscribe = s.provider.OnIdentityChange(s.handle)
	})
}

// Close unsubscribes and stops the refresher. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.startOnce.Do(func() {})
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.eventMu.Lock()
		r := s.refresher
		s.eventMu.Unlock()
		if r != nil {
			r.stop()
		}
	})
}

// Identity returns the signed-in identity, if any.
func (s *Session) Identity() (identity.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return identity.Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Loading: s.loading}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	return st
}

// HasToken reports whether a token is stored for API calls. It goes false
// when a call is rejected with 401 even though the identity stays.
func (s *Session) HasToken() bool {
	_, ok := s.creds.Get()
	return ok
}

// Ready is closed once the first identity event has been handled.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Login signs in and returns once the session reflects the new identity
// with a token stored for it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.waitFor(ctx, id.ID); err != nil {
		return err
	}
	s.topUpToken(ctx, id)
	return nil
}

// Signup creates the account, which also signs it in.
func (s *Session) Signup(ctx context.Context, username, email, password string) error {
	id, err := s.provider.SignUp(ctx, username, email, password)
	if err != nil {
		return err
	}
	return s.waitFor(ctx, id.ID)
}

// Logout signs out and returns once the session is cleared.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	return s.waitFor(ctx, "")
}

func (s *Session) handle(id *identity.Identity) {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if id == nil {
		s.creds.Clear()
		s.setState(nil)
		s.logger.Info("identity cleared")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mintTimeout)
	defer cancel()

	tok, err := s.provider.MintToken(ctx, *id)
	if err != nil {
		// The provider still considers id signed in. Without a token the
		// next API call comes back 401 and sends the user to the login page.
		s.logger.Error("failed to mint token", "uid", id.ID, "error", err)
		s.creds.Clear()
	} else {
		s.creds.Set(tok)
	}
	s.setState(id)
	s.logger.Info("identity set", "uid", id.ID, "token", cryptox.ShortFingerprint(tok))
}

// topUpToken stores a token for id if the event handler could not.
func (s *Session) topUpToken(ctx context.Context, id identity.Identity) {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	cur, ok := s.Identity()
	if !ok || cur.ID != id.ID {
		return
	}
	if _, ok := s.creds.Get(); ok {
		return
	}
	tok, err := s.provider.MintToken(ctx, id)
	if err != nil {
		s.logger.Warn("token top-up failed", "uid", id.ID, "error", err)
		return
	}
	s.creds.Set(tok)
}

func (s *Session) setState(id *identity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = id
	if s.loading {
		s.loading = false
		close(s.ready)
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

// waitFor blocks until the session is settled on uid ("" for signed out).
func (s *Session) waitFor(ctx context.Context, uid string) error {
	for {
		s.mu.RLock()
		settled := !s.loading &&
			((uid == "" && s.identity == nil) || (s.identity != nil && s.identity.ID == uid))
		changed := s.changed
		s.mu.RUnlock()

		if settled {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("session: waiting for identity change: %w", ctx.Err())
		}
	}
}

// IsCredentialError reports whether err should be shown on the form as a
// rejected credential rather than a service failure.
func IsCredentialError(err error) bool {
	return errors.Is(err, identity.ErrCredential)
}
