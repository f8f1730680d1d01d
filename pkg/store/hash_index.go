package store

import "sync"

// HashIndex maps keys to their latest record location for O(1) lookups.
type HashIndex struct {
	entries map[string]IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates an empty index.
func NewHashIndex() *HashIndex {
	return &HashIndex{entries: make(map[string]IndexEntry)}
}

// Put adds or updates the entry for key.
func (idx *HashIndex) Put(key []byte, entry IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[string(key)] = entry
}

// Get returns the entry for key.
func (idx *HashIndex) Get(key []byte) (IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, ok := idx.entries[string(key)]
	return entry, ok
}

// Delete removes key from the index.
func (idx *HashIndex) Delete(key []byte) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	delete(idx.entries, string(key))
}

// Size returns the number of live keys.
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// Keys returns a snapshot of all live keys.
func (idx *HashIndex) Keys() []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	keys := make([]string, 0, len(idx.entries))
	for key := range idx.entries {
		keys = append(keys, key)
	}
	return keys
}
