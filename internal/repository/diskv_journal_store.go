package repository

import (
	"context"
	"fmt"

	"github.com/peterbourgon/diskv/v3"

	"readingquest/internal/models"
)

// DiskJournalStore keeps each journal list in its own file under a base directory
type DiskJournalStore struct {
	d *diskv.Diskv
}

// NewDiskJournalStore creates a file-backed journal store rooted at basePath
func NewDiskJournalStore(basePath string) *DiskJournalStore {
	return &DiskJournalStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Load reads the journal list stored under key
func (s *DiskJournalStore) Load(ctx context.Context, key string) ([]models.JournalEntry, error) {
	if !s.d.Has(key) {
		return []models.JournalEntry{}, nil
	}

	payload, err := s.d.Read(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	return decodeJournal(payload)
}

// Save replaces the journal list stored under key
func (s *DiskJournalStore) Save(ctx context.Context, key string, entries []models.JournalEntry) error {
	payload, err := encodeJournal(entries)
	if err != nil {
		return err
	}
	if err := s.d.Write(key, payload); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	return nil
}
