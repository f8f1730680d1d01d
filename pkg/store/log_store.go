package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogStore is a Bitcask-style engine: one append-only data file, an
// in-memory hash index over the latest record per key, deletions as
// tombstone records. Every record on disk is checksum-wrapped, so opening
// the store validates the whole log and truncates a torn tail.
type LogStore struct {
	config   LogStoreConfig
	dataFile string
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	mutex    sync.Mutex
	open     bool
	dataSize int64
}

// LogStoreConfig configures the log engine.
type LogStoreConfig struct {
	DataDir       string
	FsyncInterval time.Duration
}

// NewLogStore creates the engine without touching the disk yet; Open does
// the recovery work.
func NewLogStore(config LogStoreConfig) (*LogStore, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &LogStore{
		config:   config,
		dataFile: filepath.Join(config.DataDir, "active.data"),
		index:    NewHashIndex(),
	}, nil
}

// Open validates the log, rebuilds the index, and makes the store ready.
// A corrupted tail (torn write from a crash) is truncated at the last
// intact record; corruption is repaired, not fatal.
func (s *LogStore) Open() (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.open {
		return &RecoveryResult{}, nil
	}

	result, err := s.recover()
	if err != nil {
		return nil, err
	}

	writer, err := NewLogWriter(LogConfig{
		FilePath:      s.dataFile,
		FsyncInterval: s.config.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}
	reader, err := NewLogReader(s.dataFile)
	if err != nil {
		writer.Close()
		return nil, err
	}
	s.writer = writer
	s.reader = reader
	s.dataSize = writer.Offset()
	s.open = true
	return result, nil
}

// recover scans the existing log, rebuilding the index and truncating at
// the first damaged record.
func (s *LogStore) recover() (*RecoveryResult, error) {
	result := &RecoveryResult{}

	if _, err := os.Stat(s.dataFile); os.IsNotExist(err) {
		return result, nil
	}

	reader, err := NewLogReader(s.dataFile)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	validEnd, scanErr := reader.Scan(func(rec *Record, offset int64, size uint32) error {
		if rec.Tombstone() {
			s.index.Delete(rec.Key)
		} else {
			s.index.Put(rec.Key, IndexEntry{Offset: offset, Size: size, Stamp: rec.Stamp})
		}
		result.RecordsValidated++
		return nil
	})
	if scanErr != nil {
		if !errors.Is(scanErr, ErrCorruption) {
			return nil, scanErr
		}
		stat, err := os.Stat(s.dataFile)
		if err != nil {
			return nil, err
		}
		result.BytesTruncated = stat.Size() - validEnd
		if err := os.Truncate(s.dataFile, validEnd); err != nil {
			return nil, fmt.Errorf("truncating damaged log tail: %w", err)
		}
	}
	return result, nil
}

// Put appends a record and points the index at it.
func (s *LogStore) Put(key, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return ErrClosed
	}
	offset, size, err := s.writer.Append(key, value, 0)
	if err != nil {
		return err
	}
	s.index.Put(key, IndexEntry{Offset: offset, Size: size, Stamp: uint64(time.Now().UnixNano())})
	s.dataSize = offset + int64(size)
	return nil
}

// Get reads the latest record for key straight from its indexed offset.
func (s *LogStore) Get(key []byte) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return nil, ErrClosed
	}
	entry, ok := s.index.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	// The record may still sit in the write buffer.
	if err := s.writer.Sync(); err != nil {
		return nil, err
	}
	rec, err := s.reader.ReadAt(entry.Offset, entry.Size)
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

// Delete appends a tombstone and drops the key from the index.
func (s *LogStore) Delete(key []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return ErrClosed
	}
	if _, ok := s.index.Get(key); !ok {
		return nil
	}
	offset, size, err := s.writer.Append(key, nil, flagTombstone)
	if err != nil {
		return err
	}
	s.index.Delete(key)
	s.dataSize = offset + int64(size)
	return nil
}

// Stats reports live counters.
func (s *LogStore) Stats() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return Stats{
		Engine:   "log",
		Keys:     s.index.Size(),
		DataSize: s.dataSize,
	}
}

// Close flushes and closes the data file.
func (s *LogStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	if err := s.writer.Close(); err != nil {
		s.reader.Close()
		return err
	}
	return s.reader.Close()
}
