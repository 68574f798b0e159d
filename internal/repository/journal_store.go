package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"readingquest/internal/database"
	"readingquest/internal/models"
)

// ErrCorruptJournal is returned when a stored journal cannot be decoded
var ErrCorruptJournal = errors.New("stored journal is corrupt")

// JournalStore persists the ordered journal list under a single key.
// Load returns an empty list when nothing has been stored yet.
// Save always overwrites the whole list.
type JournalStore interface {
	Load(ctx context.Context, key string) ([]models.JournalEntry, error)
	Save(ctx context.Context, key string, entries []models.JournalEntry) error
}

// SQLJournalStore keeps journal lists in the journal_store table
type SQLJournalStore struct {
	db database.DBTX
}

// NewSQLJournalStore creates a journal store backed by the database
func NewSQLJournalStore(db database.DBTX) *SQLJournalStore {
	return &SQLJournalStore{db: db}
}

// Load reads the journal list stored under key
func (s *SQLJournalStore) Load(ctx context.Context, key string) ([]models.JournalEntry, error) {
	var payload string
	query := "SELECT payload FROM journal_store WHERE store_key = ?"
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return []models.JournalEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	return decodeJournal([]byte(payload))
}

// Save replaces the journal list stored under key
func (s *SQLJournalStore) Save(ctx context.Context, key string, entries []models.JournalEntry) error {
	payload, err := encodeJournal(entries)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.db.GetDialect().UpsertJournalQuery(), key, string(payload)); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

func encodeJournal(entries []models.JournalEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode journal: %w", err)
	}
	return payload, nil
}

func decodeJournal(payload []byte) ([]models.JournalEntry, error) {
	entries := []models.JournalEntry{}
	if len(payload) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptJournal, err)
	}
	return entries, nil
}
