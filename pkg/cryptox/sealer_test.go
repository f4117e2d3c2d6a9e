package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T, purpose string) *cryptox.Sealer {
	t.Helper()
	s, err := cryptox.NewSealer([]byte("test-master-key-for-encryption-12345"), purpose)
	require.NoError(t, err)
	return s
}

func TestSealOpen(t *testing.T) {
	t.Parallel()
	s := newSealer(t, "credentials")

	sealed, err := s.SealString("tok123")
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "tok123")

	again, err := s.SealString("tok123")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.OpenString(sealed)
	require.NoError(t, err)
	require.Equal(t, "tok123", plain)
}

func TestOpenRejects(t *testing.T) {
	t.Parallel()
	s := newSealer(t, "credentials")

	sealed, err := s.SealString("refresh-token")
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := s.Open(sealed[:5])
		require.ErrorIs(t, err, cryptox.ErrCiphertext)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte(nil), sealed...)
		bad[len(bad)-1] ^= 0xff
		_, err := s.Open(bad)
		require.ErrorIs(t, err, cryptox.ErrCiphertext)
	})

	t.Run("other purpose", func(t *testing.T) {
		_, err := newSealer(t, "accounts").Open(sealed)
		require.ErrorIs(t, err, cryptox.ErrCiphertext)
	})
}

func TestNewSealerEmptyKey(t *testing.T) {
	_, err := cryptox.NewSealer(nil, "x")
	require.Error(t, err)
}

func TestLoadOrCreateKeyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keys", "budgetwise.key")

	first, err := cryptox.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	require.Len(t, first, cryptox.KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrCreateKeyFileMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.key")
	require.NoError(t, os.WriteFile(path, []byte("not hex"), 0o600))

	_, err := cryptox.LoadOrCreateKeyFile(path)
	require.Error(t, err)
}
