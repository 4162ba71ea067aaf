// Package cache memoizes converted metadata per source-model identity.
package cache

import (
	"sync"

	"github.com/nlstn/go-odata-metamodel/internal/metadata"
)

// Store keeps converted graphs by identity. Implementations must be safe for
// concurrent use. Entries are never expired by the coordinator; they leave the
// store only through Delete.
type Store interface {
	Load(identity string) (*metadata.ConvertedMetadata, bool)
	Store(identity string, converted *metadata.ConvertedMetadata)
	Delete(identity string) bool
	Len() int
}

// MemoryStore is an unbounded in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*metadata.ConvertedMetadata
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*metadata.ConvertedMetadata)}
}

// Load returns the graph stored for identity.
func (s *MemoryStore) Load(identity string) (*metadata.ConvertedMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	converted, ok := s.entries[identity]
	return converted, ok
}

// Store saves the graph for identity, replacing any previous entry.
func (s *MemoryStore) Store(identity string, converted *metadata.ConvertedMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[identity] = converted
}

// Delete removes the entry for identity and reports whether there was one.
func (s *MemoryStore) Delete(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[identity]; !ok {
		return false
	}
	delete(s.entries, identity)
	return true
}

// Len returns the number of stored graphs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
