package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleStore backs the Store interface with a pebble database, for
// deployments that outgrow the single-file log engine.
type PebbleStore struct {
	db    *pebble.DB
	mutex sync.Mutex
	open  bool
}

// NewPebbleStore opens (or creates) a pebble database in dir.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble db: %w", err)
	}
	return &PebbleStore{db: db, open: true}, nil
}

// Put stores value under key.
func (s *PebbleStore) Put(key, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return ErrClosed
	}
	return s.db.Set(key, value, pebble.Sync)
}

// Get returns the value stored under key.
func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return nil, ErrClosed
	}
	value, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes key.
func (s *PebbleStore) Delete(key []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return ErrClosed
	}
	return s.db.Delete(key, pebble.Sync)
}

// Stats reports approximate counters; pebble does not track an exact live
// key count cheaply, so Keys stays zero here.
func (s *PebbleStore) Stats() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stats := Stats{Engine: "pebble"}
	if s.open {
		metrics := s.db.Metrics()
		stats.DataSize = int64(metrics.DiskSpaceUsage())
	}
	return stats
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	return s.db.Close()
}
