package repository

import (
	"context"
	"sync"

	"readingquest/internal/models"
)

// MemoryJournalStore keeps journals in process memory
type MemoryJournalStore struct {
	mu       sync.RWMutex
	journals map[string][]byte
}

// NewMemoryJournalStore creates an empty in-memory journal store
func NewMemoryJournalStore() *MemoryJournalStore {
	return &MemoryJournalStore{journals: make(map[string][]byte)}
}

// Load reads the journal list stored under key
func (s *MemoryJournalStore) Load(ctx context.Context, key string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	payload, ok := s.journals[key]
	s.mu.RUnlock()

	if !ok {
		return []models.JournalEntry{}, nil
	}
	return decodeJournal(payload)
}

// Save replaces the journal list stored under key
func (s *MemoryJournalStore) Save(ctx context.Context, key string, entries []models.JournalEntry) error {
	// Stored encoded so callers cannot mutate saved entries
	payload, err := encodeJournal(entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.journals[key] = payload
	s.mu.Unlock()
	return nil
}

// SetRaw stores an undecoded payload, used to simulate corrupted storage
func (s *MemoryJournalStore) SetRaw(key string, payload []byte) {
	s.mu.Lock()
	s.journals[key] = payload
	s.mu.Unlock()
}
