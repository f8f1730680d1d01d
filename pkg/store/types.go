// Package store provides the key-value backends consumed by the storage
// protocol handlers. Handlers only see the narrow Store interface; behind
// it live an append-only log engine whose on-disk record format is a token
// schema, and a pebble-backed engine.
package store

import (
	"errors"
	"time"
)

// Store is the capability surface message handlers get. Implementations
// must be safe for concurrent use.
type Store interface {
	// Put stores value under key, replacing any previous value.
	Put(key, value []byte) error

	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Stats reports live counters for the admin endpoint.
	Stats() Stats

	// Close releases the engine's resources.
	Close() error
}

// Stats is a snapshot of store counters.
type Stats struct {
	Engine   string `json:"engine"`
	Keys     int    `json:"keys"`
	DataSize int64  `json:"data_size_bytes"`
}

// Errors shared by all engines.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("store is closed")
	ErrCorruption  = errors.New("data corruption detected")
)

// IndexEntry locates a live record inside the append-only log.
type IndexEntry struct {
	Offset int64  // byte offset of the record in the data file
	Size   uint32 // encoded record size in bytes
	Stamp  uint64 // record timestamp, nanoseconds
}

// LogConfig holds configuration shared by the log writer and reader.
type LogConfig struct {
	FilePath      string        // path to the active data file
	FsyncInterval time.Duration // 0 means fsync on every write
	BufferSize    int           // write buffer size, 0 for the default
}

// RecoveryResult summarizes what opening a log store found and repaired.
type RecoveryResult struct {
	RecordsValidated int
	BytesTruncated   int64
}
