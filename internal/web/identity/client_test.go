package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type memAccounts struct {
	mu  sync.Mutex
	acc *store.Account
}

func (m *memAccounts) GetCurrentAccount(context.Context) (store.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acc == nil {
		return store.Account{}, store.ErrNotFound
	}
	return *m.acc, nil
}

func (m *memAccounts) SaveAccount(_ context.Context, a store.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acc = &a
	return nil
}

func (m *memAccounts) DeleteAccounts(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acc = nil
	return nil
}

func startedClient(t *testing.T, f *fakeService, cfg Config) *Client {
	t.Helper()
	cfg.Logger = slogx.Discard()
	c := f.client(t, cfg)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestSignUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	c := startedClient(t, f, Config{})

	rec := newRecorder()
	defer c.OnIdentityChange(rec.listen)()
	require.Nil(t, rec.next(t))

	id, err := c.SignUp(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, Identity{ID: "uid-alice", Email: "alice@example.com", Username: "alice"}, id)
	require.Equal(t, &id, rec.next(t))

	t.Run("email already registered", func(t *testing.T) {
		_, err := c.SignUp(ctx, "alice2", "alice@example.com", "hunter22")
		require.ErrorIs(t, err, ErrCredential)

		var se *ServiceError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "EMAIL_EXISTS", se.Code)
		require.Equal(t, "An account with this email already exists.", UserMessage(err))
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := c.SignUp(ctx, "bob", "bob@example.com", "123")
		require.ErrorIs(t, err, ErrCredential)

		var se *ServiceError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "WEAK_PASSWORD", se.Code)
		require.Equal(t, "Password should be at least 6 characters", se.Detail)
	})

	rec.none(t)
}

func TestSignUpWithoutUsernameFallsBackToEmail(t *testing.T) {
	t.Parallel()
	c := startedClient(t, newFakeService(t), Config{})

	id, err := c.SignUp(context.Background(), "  ", "carol@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "carol", id.Username)
}

func TestSignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	f.addUser("alice@example.com", "hunter22", "Alice")
	c := startedClient(t, f, Config{})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.SignIn(ctx, "alice@example.com", "nope")
		require.ErrorIs(t, err, ErrCredential)
		require.Equal(t, "Invalid email or password.", UserMessage(err))
	})

	t.Run("token is available immediately", func(t *testing.T) {
		id, err := c.SignIn(ctx, " alice@example.com ", "hunter22")
		require.NoError(t, err)
		require.Equal(t, "Alice", id.Username)

		tok, err := c.MintToken(ctx, id)
		require.NoError(t, err)
		require.NotEmpty(t, tok)
		require.Zero(t, f.refreshCalls.Load())
	})
}

func TestProviderUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("service error", func(t *testing.T) {
		f := newFakeService(t)
		f.down = true
		c := startedClient(t, f, Config{})

		_, err := c.SignIn(ctx, "alice@example.com", "hunter22")
		require.ErrorIs(t, err, ErrProviderUnavailable)
		require.False(t, errors.Is(err, ErrCredential))
	})

	t.Run("unreachable", func(t *testing.T) {
		f := newFakeService(t)
		c := startedClient(t, f, Config{Timeout: time.Second})
		f.srv.Close()

		_, err := c.SignUp(ctx, "a", "alice@example.com", "hunter22")
		require.ErrorIs(t, err, ErrProviderUnavailable)
		require.Equal(t, "The sign-in service is unavailable. Please try again.", UserMessage(err))
	})
}

func TestMintTokenRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	f.addUser("alice@example.com", "hunter22", "")
	c := startedClient(t, f, Config{})

	id, err := c.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	first, err := c.MintToken(ctx, id)
	require.NoError(t, err)

	// 59m40s later the token is inside the refresh buffer.
	c.now = func() time.Time { return time.Now().Add(59*time.Minute + 40*time.Second) }

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], _ = c.MintToken(ctx, id)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, f.refreshCalls.Load(), "concurrent mints share one refresh")
	for _, tok := range tokens {
		require.Equal(t, tokens[0], tok)
	}
	require.NotEqual(t, first, tokens[0])
}

func TestMintTokenRejectedRefreshSignsOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	f.addUser("alice@example.com", "hunter22", "")
	accounts := &memAccounts{}
	c := startedClient(t, f, Config{Accounts: accounts})

	id, err := c.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	rec := newRecorder()
	defer c.OnIdentityChange(rec.listen)()
	require.Equal(t, "uid-alice", rec.next(t).ID)

	f.mu.Lock()
	f.rejectRT = true
	f.mu.Unlock()
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = c.MintToken(ctx, id)
	require.ErrorIs(t, err, ErrCredential)
	require.Nil(t, rec.next(t))

	_, err = accounts.GetCurrentAccount(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = c.MintToken(ctx, id)
	require.ErrorIs(t, err, ErrCredential)
}

func TestMintTokenForOtherIdentity(t *testing.T) {
	t.Parallel()
	c := startedClient(t, newFakeService(t), Config{})

	_, err := c.MintToken(context.Background(), Identity{ID: "someone-else"})
	require.ErrorIs(t, err, ErrCredential)
}

func TestSignOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	f.addUser("alice@example.com", "hunter22", "")
	c := startedClient(t, f, Config{})

	rec := newRecorder()
	defer c.OnIdentityChange(rec.listen)()
	require.Nil(t, rec.next(t))

	require.NoError(t, c.SignOut(ctx), "signing out while signed out succeeds")
	rec.none(t)

	id, err := c.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, id.ID, rec.next(t).ID)

	require.NoError(t, c.SignOut(ctx))
	require.Nil(t, rec.next(t))

	_, err = c.MintToken(ctx, id)
	require.ErrorIs(t, err, ErrCredential)
}

func TestRestoreFromPersistedAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeService(t)
	f.addUser("alice@example.com", "hunter22", "Alice")
	accounts := &memAccounts{}

	first := startedClient(t, f, Config{Accounts: accounts})
	id, err := first.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	tok, err := first.MintToken(ctx, id)
	require.NoError(t, err)

	second := startedClient(t, f, Config{Accounts: accounts})
	rec := newRecorder()
	defer second.OnIdentityChange(rec.listen)()

	restored := rec.next(t)
	require.NotNil(t, restored)
	require.Equal(t, id, *restored)

	again, err := second.MintToken(ctx, *restored)
	require.NoError(t, err)
	require.Equal(t, tok, again)
	require.Zero(t, f.refreshCalls.Load())
}
