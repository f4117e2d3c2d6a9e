package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
	"github.com/aussiebroadwan/budgetwise/pkg/jwtx"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/go-resty/resty/v2"
)

// refreshBuffer is how long before expiry a token is considered stale.
const refreshBuffer = 30 * time.Second

type Config struct {
	APIKey   string        // Required: web API key of the identity project
	BaseURL  string        // Optional: Identity Toolkit base URL (default: DefaultBaseURL)
	TokenURL string        // Optional: Secure Token base URL (default: DefaultTokenURL)
	Timeout  time.Duration // Optional: per-request timeout (default: 10s)

	// Accounts persists the signed-in account so a restart resumes it.
	// Optional.
	Accounts store.Accounts
	Logger   *slog.Logger
}

// Client is the Provider backed by the identity service's REST APIs.
type Client struct {
	toolkit     *resty.Client
	secureToken *resty.Client
	apiKey      string
	accounts    store.Accounts
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.RWMutex
	current *account

	// refreshMu serialises refresh grants so concurrent MintToken calls
	// share one round trip.
	refreshMu sync.Mutex

	events *Events
}

type account struct {
	identity     Identity
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

var _ Provider = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("identity: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "identity")

	newREST := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetTimeout(cfg.Timeout).
			SetLogger(slogx.RestyLogger{Logger: logger}).
			SetHeader("Accept", "application/json")
	}

	return &Client{
		toolkit:     newREST(cfg.BaseURL),
		secureToken: newREST(cfg.TokenURL),
		apiKey:      cfg.APIKey,
		accounts:    cfg.Accounts,
		logger:      logger,
		now:         time.Now,
		events:      NewEvents(),
	}, nil
}

// Start restores a persisted account and begins delivering events.
// Subscribe after Start to receive the restored identity as the first event.
func (c *Client) Start(ctx context.Context) error {
	if c.accounts != nil {
		rec, err := c.accounts.GetCurrentAccount(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return fmt.Errorf("identity: restore account: %w", err)
		default:
			c.mu.Lock()
			c.setCurrentLocked(&account{
				identity:     identityFrom(rec.UID, rec.Email, rec.DisplayName, rec.IDToken),
				idToken:      rec.IDToken,
				refreshToken: rec.RefreshToken,
				expiresAt:    rec.ExpiresAt,
			}, false)
			c.mu.Unlock()
			c.logger.Info("session restored", "uid", rec.UID)
		}
	}

	c.events.Start()
	return nil
}

// Stop halts event delivery.
func (c *Client) Stop() {
	c.events.Stop()
}

func (c *Client) OnIdentityChange(fn Listener) func() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.Subscribe(fn, c.currentIdentityLocked())
}

func (c *Client) SignUp(ctx context.Context, username, email, password string) (Identity, error) {
	grant, err := c.signUpWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return Identity{}, err
	}

	// The display name is profile data; an account without one still works.
	if username = strings.TrimSpace(username); username != "" {
		updated, err := c.updateDisplayName(ctx, grant.IDToken, username)
		if err != nil {
			c.logger.Warn("failed to store display name", "uid", grant.UID, "error", err)
		} else {
			grant.DisplayName = updated.DisplayName
			grant.IDToken = updated.IDToken
			if updated.RefreshToken != "" {
				grant.RefreshToken = updated.RefreshToken
			}
			grant.ExpiresAt = updated.ExpiresAt
		}
	}

	return c.establish(ctx, grant), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	grant, err := c.signInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return Identity{}, err
	}
	return c.establish(ctx, grant), nil
}

// SignOut forgets the local account. It never fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	c.logger.Info("signed out", "uid", c.current.identity.ID)
	c.clearLocked(ctx)
	return nil
}

func (c *Client) MintToken(ctx context.Context, id Identity) (string, error) {
	if tok, _, err := c.cachedToken(id); err != nil || tok != "" {
		return tok, err
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	tok, refreshToken, err := c.cachedToken(id)
	if err != nil || tok != "" {
		return tok, err
	}

	grant, err := c.refreshGrant(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrCredential) {
			c.mu.Lock()
			if c.current != nil && c.current.refreshToken == refreshToken {
				c.logger.Warn("refresh rejected, signing out", "uid", id.ID, "error", err)
				c.clearLocked(ctx)
			}
			c.mu.Unlock()
		}
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A sign-out or a different sign-in won the race; don't resurrect it.
	if c.current == nil || c.current.identity.ID != id.ID {
		return "", fmt.Errorf("identity: %s is no longer signed in: %w", id.ID, ErrCredential)
	}
	c.current.idToken = grant.IDToken
	if grant.RefreshToken != "" {
		c.current.refreshToken = grant.RefreshToken
	}
	c.current.expiresAt = grant.ExpiresAt
	c.persistLocked(ctx)

	c.logger.Debug("token refreshed", "uid", id.ID, "fp", cryptox.ShortFingerprint(grant.IDToken))
	return grant.IDToken, nil
}

// cachedToken returns the current ID token if it belongs to id and is not
// within refreshBuffer of expiry. Otherwise it returns the refresh token to
// renew it with.
func (c *Client) cachedToken(id Identity) (idToken, refreshToken string, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.current.identity.ID != id.ID {
		return "", "", fmt.Errorf("identity: %s is not signed in: %w", id.ID, ErrCredential)
	}
	if c.current.idToken != "" && c.now().Before(c.current.expiresAt.Add(-refreshBuffer)) {
		return c.current.idToken, "", nil
	}
	return "", c.current.refreshToken, nil
}

func (c *Client) establish(ctx context.Context, g tokenGrant) Identity {
	acc := &account{
		identity:     identityFrom(g.UID, g.Email, g.DisplayName, g.IDToken),
		idToken:      g.IDToken,
		refreshToken: g.RefreshToken,
		expiresAt:    g.ExpiresAt,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCurrentLocked(acc, true)
	c.persistLocked(ctx)
	c.logger.Info("signed in", "uid", acc.identity.ID)
	return acc.identity
}

func (c *Client) setCurrentLocked(acc *account, publish bool) {
	c.current = acc
	if publish {
		c.events.Publish(c.currentIdentityLocked())
	}
}

func (c *Client) clearLocked(ctx context.Context) {
	c.current = nil
	if c.accounts != nil {
		if err := c.accounts.DeleteAccounts(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("failed to delete persisted account", "error", err)
		}
	}
	c.events.Publish(nil)
}

func (c *Client) persistLocked(ctx context.Context) {
	if c.accounts == nil || c.current == nil {
		return
	}
	err := c.accounts.SaveAccount(context.WithoutCancel(ctx), store.Account{
		UID:          c.current.identity.ID,
		Email:        c.current.identity.Email,
		DisplayName:  c.current.identity.Username,
		RefreshToken: c.current.refreshToken,
		IDToken:      c.current.idToken,
		ExpiresAt:    c.current.expiresAt,
	})
	if err != nil {
		c.logger.Warn("failed to persist account", "error", err)
	}
}

func (c *Client) currentIdentityLocked() *Identity {
	if c.current == nil {
		return nil
	}
	id := c.current.identity
	return &id
}

// identityFrom fills gaps in the service response from the ID token claims.
func identityFrom(uid, email, displayName, idToken string) Identity {
	if claims, err := jwtx.Peek(idToken); err == nil {
		if uid == "" {
			uid = claims.UID()
		}
		if email == "" {
			email = claims.Email
		}
		if displayName == "" {
			displayName = claims.Name
		}
	}
	return Identity{ID: uid, Email: email, Username: usernameFor(displayName, email)}
}
