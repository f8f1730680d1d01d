package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLogStore(t *testing.T, dir string) *LogStore {
	t.Helper()
	s, err := NewLogStore(LogStoreConfig{DataDir: dir})
	require.NoError(t, err)
	_, err = s.Open()
	require.NoError(t, err)
	return s
}

func TestLogStoreBasicOperations(t *testing.T) {
	s := openLogStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put([]byte("alpha"), []byte("one")))
	require.NoError(t, s.Put([]byte("beta"), []byte("two")))

	got, err := s.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	// Overwrites shadow the previous record.
	require.NoError(t, s.Put([]byte("alpha"), []byte("uno")))
	got, err = s.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), got)

	_, err = s.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	stats := s.Stats()
	assert.Equal(t, "log", stats.Engine)
	assert.Equal(t, 2, stats.Keys)
	assert.Positive(t, stats.DataSize)
}

func TestLogStoreDelete(t *testing.T) {
	s := openLogStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	require.NoError(t, s.Delete([]byte("k")))

	_, err := s.Get([]byte("k"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.Delete([]byte("never-there")))
}

func TestLogStoreReopenRecoversState(t *testing.T) {
	dir := t.TempDir()

	s := openLogStore(t, dir)
	require.NoError(t, s.Put([]byte("persists"), []byte("yes")))
	require.NoError(t, s.Put([]byte("deleted"), []byte("no")))
	require.NoError(t, s.Delete([]byte("deleted")))
	require.NoError(t, s.Close())

	reopened, err := NewLogStore(LogStoreConfig{DataDir: dir})
	require.NoError(t, err)
	result, err := reopened.Open()
	require.NoError(t, err)
	defer reopened.Close()

	// Two puts plus one tombstone.
	assert.Equal(t, 3, result.RecordsValidated)
	assert.Zero(t, result.BytesTruncated)

	got, err := reopened.Get([]byte("persists"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), got)

	_, err = reopened.Get([]byte("deleted"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestLogStoreTruncatesTornTail(t *testing.T) {
	dir := t.TempDir()

	s := openLogStore(t, dir)
	require.NoError(t, s.Put([]byte("good"), []byte("record")))
	require.NoError(t, s.Put([]byte("torn"), []byte("record")))
	require.NoError(t, s.Close())

	// Simulate a crash mid-write: chop bytes off the last record.
	dataFile := filepath.Join(dir, "active.data")
	stat, err := os.Stat(dataFile)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(dataFile, stat.Size()-4))

	reopened, err := NewLogStore(LogStoreConfig{DataDir: dir})
	require.NoError(t, err)
	result, err := reopened.Open()
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, result.RecordsValidated)
	assert.Positive(t, result.BytesTruncated)

	// The intact record survives, the torn one is gone.
	got, err := reopened.Get([]byte("good"))
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), got)

	_, err = reopened.Get([]byte("torn"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Writes resume cleanly after truncation.
	require.NoError(t, reopened.Put([]byte("after"), []byte("recovery")))
	got, err = reopened.Get([]byte("after"))
	require.NoError(t, err)
	assert.Equal(t, []byte("recovery"), got)
}

func TestLogStoreClosedErrors(t *testing.T) {
	s := openLogStore(t, t.TempDir())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Put([]byte("k"), []byte("v")), ErrClosed)
	_, err := s.Get([]byte("k"))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Delete([]byte("k")), ErrClosed)
}

func TestPebbleStoreBasicOperations(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put([]byte("alpha"), []byte("one")))

	got, err := s.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	_, err = s.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Delete([]byte("alpha")))
	_, err = s.Get([]byte("alpha"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, "pebble", s.Stats().Engine)
}
