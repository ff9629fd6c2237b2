// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cachestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cache", "cache.db"))

	payload, state, err := s.Get("accession", "JGAD000001")
	require.NoError(t, err)
	assert.Equal(t, StateUnfetched, state)
	assert.Nil(t, payload)

	require.NoError(t, s.Put("accession", "JGAD000001", []byte(`{"ok":true}`)))

	payload, state, err = s.Get("accession", "JGAD000001")
	require.NoError(t, err)
	assert.Equal(t, StateFound, state)
	assert.Equal(t, []byte(`{"ok":true}`), payload)
}

func TestStoreNotFoundSentinel(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cache.db"))

	require.NoError(t, s.PutNotFound("doi", "some title"))

	payload, state, err := s.Get("doi", "some title")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, state, "an attempted miss is not the same as unfetched")
	assert.Nil(t, payload)

	// A later successful lookup overwrites the sentinel.
	require.NoError(t, s.Put("doi", "some title", []byte("10.1000/xyz")))
	payload, state, err = s.Get("doi", "some title")
	require.NoError(t, err)
	assert.Equal(t, StateFound, state)
	assert.Equal(t, []byte("10.1000/xyz"), payload)
}

func TestStoreNamespacesAreDisjoint(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cache.db"))

	require.NoError(t, s.Put("accession", "K", []byte("a")))
	require.NoError(t, s.Put("doi", "K", []byte("d")))

	payload, _, err := s.Get("accession", "K")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), payload)

	payload, _, err = s.Get("doi", "K")
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), payload)
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("accession", "DRA000100", []byte("x")))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	payload, state, err := s.Get("accession", "DRA000100")
	require.NoError(t, err)
	assert.Equal(t, StateFound, state)
	assert.Equal(t, []byte("x"), payload)
}
