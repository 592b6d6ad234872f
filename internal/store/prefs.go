package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Well-known preference keys.
const (
	KeyLastFromChain = "last_from_chain"
	KeyLastToChain   = "last_to_chain"
	KeyLastToken     = "last_token"
)

// PrefsStore persists user-facing selections (last used chains, last bridged
// token) across restarts. It is a flat key/value table; writes are serialized
// through a file lock so concurrent processes sharing the database do not
// clobber each other.
type PrefsStore struct {
	db   *sql.DB
	lock *flock.Flock
}

// OpenPrefs opens (creating if needed) the preferences database.
func OpenPrefs(path, lockPath string) (*PrefsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open prefs sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init prefs schema: %w", err)
		}
	}
	return &PrefsStore{db: db, lock: flock.New(lockPath)}, nil
}

// Close releases the database handle.
func (s *PrefsStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set stores one preference, replacing any previous value.
func (s *PrefsStore) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("set pref: empty key")
	}
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock prefs store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock prefs store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	_, err = s.db.Exec(`
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, key, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

// Get reads one preference. Missing keys return ("", nil).
func (s *PrefsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read pref %s: %w", key, err)
	}
	return value, nil
}

// SetLastRoute records the most recent bridge source/destination selection.
func (s *PrefsStore) SetLastRoute(fromChainID, toChainID uint64) error {
	if err := s.Set(KeyLastFromChain, strconv.FormatUint(fromChainID, 10)); err != nil {
		return err
	}
	return s.Set(KeyLastToChain, strconv.FormatUint(toChainID, 10))
}

// LastRoute returns the persisted bridge route; zeros mean "never saved".
func (s *PrefsStore) LastRoute() (fromChainID, toChainID uint64, err error) {
	fromStr, err := s.Get(KeyLastFromChain)
	if err != nil {
		return 0, 0, err
	}
	toStr, err := s.Get(KeyLastToChain)
	if err != nil {
		return 0, 0, err
	}
	if fromStr != "" {
		fromChainID, _ = strconv.ParseUint(fromStr, 10, 64)
	}
	if toStr != "" {
		toChainID, _ = strconv.ParseUint(toStr, 10, 64)
	}
	return fromChainID, toChainID, nil
}
