package credstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aussiebroadwan/budgetwise/internal/web/credstore"
	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type memCredentials struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func (m *memCredentials) GetCredential(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *memCredentials) PutCredential(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *memCredentials) DeleteCredential(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

func TestSetGetClear(t *testing.T) {
	t.Parallel()
	s := credstore.New()

	_, ok := s.Get()
	require.False(t, ok)

	s.Set("tok123")
	tok, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "tok123", tok)

	s.Clear()
	_, ok = s.Get()
	require.False(t, ok)

	s.Clear()
	_, ok = s.Get()
	require.False(t, ok)

	s.Set("tok123")
	s.Set("")
	_, ok = s.Get()
	require.False(t, ok, "setting an empty token clears the store")
}

func TestPersistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backing := &memCredentials{}

	first := credstore.New(credstore.WithPersistence(backing), credstore.WithLogger(slogx.Discard()))
	first.Set("tok123")
	require.Equal(t, "tok123", backing.values[credstore.Key])

	second := credstore.New(credstore.WithPersistence(backing))
	require.NoError(t, second.Restore(ctx))
	tok, ok := second.Get()
	require.True(t, ok)
	require.Equal(t, "tok123", tok)

	second.Clear()
	_, present := backing.values[credstore.Key]
	require.False(t, present)

	third := credstore.New(credstore.WithPersistence(backing))
	require.NoError(t, third.Restore(ctx))
	_, ok = third.Get()
	require.False(t, ok)
}

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	backing := &memCredentials{err: errors.New("disk full")}
	s := credstore.New(credstore.WithPersistence(backing), credstore.WithLogger(slogx.Discard()))

	s.Set("tok123")
	tok, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "tok123", tok)

	require.Error(t, s.Restore(context.Background()))
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	s := credstore.New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.Set("tok")
			} else {
				s.Clear()
			}
		}()
		go func() {
			defer wg.Done()
			if tok, ok := s.Get(); ok {
				require.Equal(t, "tok", tok)
			}
		}()
	}
	wg.Wait()
}
