// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
)

// Provider is an in-memory identity.Provider. Event delivery goes through a
// real identity.Events, so ordering matches the production client.
type Provider struct {
	mu       sync.Mutex
	users    map[string]fakeUser
	current  *identity.Identity
	token    map[string]string
	mintErr  error
	mints    int
	events   *identity.Events
	unavail  bool
	signOuts int
}

type fakeUser struct {
	id       identity.Identity
	password string
}

var _ identity.Provider = (*Provider)(nil)

// New returns a started Provider. Stop it with Close.
func New() *Provider {
	p := &Provider{
		users:  map[string]fakeUser{},
		token:  map[string]string{},
		events: identity.NewEvents(),
	}
	p.events.Start()
	return p
}

func (p *Provider) Close() { p.events.Stop() }

// AddUser registers an account that SignIn will accept.
func (p *Provider) AddUser(username, email, password string) identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := identity.Identity{ID: "uid-" + username, Email: email, Username: username}
	p.users[email] = fakeUser{id: id, password: password}
	return id
}

// SetToken fixes the token MintToken returns for uid.
func (p *Provider) SetToken(uid, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token[uid] = token
}

// SetMintError makes MintToken fail with err (nil to reset).
func (p *Provider) SetMintError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mintErr = err
}

// SetUnavailable makes every network-backed call fail.
func (p *Provider) SetUnavailable(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavail = v
}

// Emit changes the current identity as if the service reported it, e.g. a
// restored session or an expired one.
func (p *Provider) Emit(id *identity.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = id
	p.events.Publish(id)
}

func (p *Provider) MintCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mints
}

func (p *Provider) SignOutCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

func (p *Provider) SignUp(_ context.Context, username, email, password string) (identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavail {
		return identity.Identity{}, identity.ErrProviderUnavailable
	}
	if _, exists := p.users[email]; exists {
		return identity.Identity{}, fmt.Errorf("email exists: %w", identity.ErrCredential)
	}
	if len(password) < 6 {
		return identity.Identity{}, fmt.Errorf("weak password: %w", identity.ErrCredential)
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	id := identity.Identity{ID: "uid-" + username, Email: email, Username: username}
	p.users[email] = fakeUser{id: id, password: password}
	p.setLocked(&id)
	return id, nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavail {
		return identity.Identity{}, identity.ErrProviderUnavailable
	}
	u, ok := p.users[email]
	if !ok || u.password != password {
		return identity.Identity{}, fmt.Errorf("invalid login: %w", identity.ErrCredential)
	}
	id := u.id
	p.setLocked(&id)
	return id, nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.signOuts++
	if p.current != nil {
		p.setLocked(nil)
	}
	return nil
}

func (p *Provider) MintToken(_ context.Context, id identity.Identity) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mints++
	if p.mintErr != nil {
		return "", p.mintErr
	}
	if p.unavail {
		return "", identity.ErrProviderUnavailable
	}
	if tok, ok := p.token[id.ID]; ok {
		return tok, nil
	}
	return fmt.Sprintf("tok-%s-%d", id.ID, p.mints), nil
}

func (p *Provider) OnIdentityChange(fn identity.Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events.Subscribe(fn, p.current)
}

func (p *Provider) setLocked(id *identity.Identity) {
	p.current = id
	p.events.Publish(id)
}
