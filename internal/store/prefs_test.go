package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *PrefsStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenPrefs(filepath.Join(dir, "prefs.db"), filepath.Join(dir, "prefs.lock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set(KeyLastToken, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"))
	got, err := s.Get(KeyLastToken)
	require.NoError(t, err)
	require.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", got)

	// Overwrite wins.
	require.NoError(t, s.Set(KeyLastToken, "0x0000000000000000000000000000000000000000"))
	got, err = s.Get(KeyLastToken)
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000000000", got)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get("never_set")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSetEmptyKeyRejected(t *testing.T) {
	s := openTestStore(t)
	require.Error(t, s.Set("", "x"))
}

func TestLastRoute(t *testing.T) {
	s := openTestStore(t)

	from, to, err := s.LastRoute()
	require.NoError(t, err)
	require.Zero(t, from)
	require.Zero(t, to)

	require.NoError(t, s.SetLastRoute(1, 8453))
	from, to, err = s.LastRoute()
	require.NoError(t, err)
	require.Equal(t, uint64(1), from)
	require.Equal(t, uint64(8453), to)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.db")
	lock := filepath.Join(dir, "prefs.lock")

	s, err := OpenPrefs(path, lock)
	require.NoError(t, err)
	require.NoError(t, s.SetLastRoute(10, 42161))
	require.NoError(t, s.Close())

	s, err = OpenPrefs(path, lock)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	from, to, err := s.LastRoute()
	require.NoError(t, err)
	require.Equal(t, uint64(10), from)
	require.Equal(t, uint64(42161), to)
}
