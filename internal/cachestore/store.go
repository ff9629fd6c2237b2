// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cachestore persists external lookup results in SQLite so
// enrichment runs never repeat a lookup, including ones that came back
// not-found. The not-found sentinel is an explicit row state, distinct
// from a key that was never attempted.
package cachestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// State describes what the cache knows about a key.
type State int

const (
	// StateUnfetched means the key was never attempted.
	StateUnfetched State = iota
	// StateFound means a payload is cached.
	StateFound
	// StateNotFound means the lookup was attempted and the upstream
	// service answered 404.
	StateNotFound
)

// Store is a SQLite-backed lookup cache. Keys are namespaced so one
// database serves both accession metadata and DOI lookups.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	found      INTEGER NOT NULL,
	payload    BLOB,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (namespace, key)
);
`

// Open opens or creates the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached payload and state for (namespace, key). The
// payload is nil unless the state is StateFound.
func (s *Store) Get(namespace, key string) ([]byte, State, error) {
	var found int
	var payload []byte
	err := s.db.QueryRow(
		`SELECT found, payload FROM lookups WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&found, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, StateUnfetched, nil
	}
	if err != nil {
		return nil, StateUnfetched, fmt.Errorf("reading cache %s/%s: %w", namespace, key, err)
	}
	if found == 0 {
		return nil, StateNotFound, nil
	}
	return payload, StateFound, nil
}

// Put caches a successful lookup payload.
func (s *Store) Put(namespace, key string, payload []byte) error {
	return s.upsert(namespace, key, 1, payload)
}

// PutNotFound caches the explicit not-found sentinel.
func (s *Store) PutNotFound(namespace, key string) error {
	return s.upsert(namespace, key, 0, nil)
}

func (s *Store) upsert(namespace, key string, found int, payload []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO lookups (namespace, key, found, payload, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		   found = excluded.found,
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at`,
		namespace, key, found, payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache %s/%s: %w", namespace, key, err)
	}
	return nil
}
