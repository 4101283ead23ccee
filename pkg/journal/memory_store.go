package journal

import (
	"sync"
)

// InMemoryStore is a simple, goroutine-safe Store backed by a slice.
// Entries are not durable; it is intended for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	nextSeq int64
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) Append(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	entry.Seq = s.nextSeq

	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *InMemoryStore) List(filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Entry
	for _, entry := range s.entries {
		if matches(entry, filter) {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, nil
}
