// Package prefs persists small per-listener settings (volume, mute) in a
// local SQLite file so they survive restarts.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Persisted keys.
const (
	KeyPlayerVolume = "antigaz_player_volume"
	KeyPlayerMuted  = "antigaz_player_muted"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is a tiny key/value store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the preferences database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prefs database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize prefs schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read preference")
		return "", false
	}
	return value, true
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// Volume returns the stored volume in [0,1]; ok is false when unset.
func (s *Store) Volume() (float64, bool) {
	raw, ok := s.get(KeyPlayerVolume)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		log.Warn().Str("value", raw).Msg("Discarding invalid stored volume")
		return 0, false
	}
	return v, true
}

func (s *Store) SetVolume(v float64) error {
	return s.set(KeyPlayerVolume, strconv.FormatFloat(v, 'f', -1, 64))
}

// Muted returns the stored mute flag; ok is false when unset.
func (s *Store) Muted() (bool, bool) {
	raw, ok := s.get(KeyPlayerMuted)
	if !ok {
		return false, false
	}
	return raw == "1", true
}

func (s *Store) SetMuted(muted bool) error {
	value := "0"
	if muted {
		value = "1"
	}
	return s.set(KeyPlayerMuted, value)
}
