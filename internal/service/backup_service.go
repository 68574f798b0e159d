package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"readingquest/internal/database"
	"readingquest/internal/models"
	"readingquest/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete backup structure
type BackupData struct {
	Version      string                `json:"version"`
	ExportedAt   time.Time             `json:"exported_at"`
	DatabaseType string                `json:"database_type"`
	JournalKey   string                `json:"journal_key"`
	Journal      []models.JournalEntry `json:"journal"`
	Progress     []ProgressBackup      `json:"progress"`
	Completions  []CompletionBackup    `json:"completions"`
}

// ProgressBackup represents an earned token for backup
type ProgressBackup struct {
	SessionID    string    `json:"session_id"`
	Slot         int       `json:"slot"`
	Mood         string    `json:"mood"`
	Message      string    `json:"message"`
	UsedFallback bool      `json:"used_fallback"`
	EarnedAt     time.Time `json:"earned_at"`
}

// CompletionBackup represents a completed quest for backup
type CompletionBackup struct {
	SessionID   string    `json:"session_id"`
	Mood        string    `json:"mood"`
	Tokens      int       `json:"tokens"`
	CompletedAt time.Time `json:"completed_at"`
}

// BackupService handles backup and restore of the journal and progress log
type BackupService struct {
	db         *database.DB
	journal    repository.JournalStore
	journalKey string
}

// NewBackupService creates a new backup service. A nil journal store means
// the journal lives in the database.
func NewBackupService(db *database.DB, journal repository.JournalStore, journalKey string) *BackupService {
	return &BackupService{db: db, journal: journal, journalKey: journalKey}
}

// GetDB returns the database connection for direct queries
func (s *BackupService) GetDB() *database.DB {
	return s.db
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	log.Printf("Backup exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	log.Println("Starting export...")

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
		JournalKey:   s.journalKey,
	}

	journal, err := s.journalStore(s.db).Load(ctx, s.journalKey)
	if err != nil {
		return fmt.Errorf("failed to export journal: %w", err)
	}
	backup.Journal = journal

	progress := repository.NewProgressRepository(s.db)
	records, err := progress.AllRecords()
	if err != nil {
		return fmt.Errorf("failed to export progress: %w", err)
	}
	for _, r := range records {
		backup.Progress = append(backup.Progress, ProgressBackup{
			SessionID:    r.SessionID,
			Slot:         r.Slot,
			Mood:         string(r.Mood),
			Message:      r.Message,
			UsedFallback: r.UsedFallback,
			EarnedAt:     r.EarnedAt,
		})
	}

	completions, err := progress.AllCompletions()
	if err != nil {
		return fmt.Errorf("failed to export completions: %w", err)
	}
	for _, c := range completions {
		backup.Completions = append(backup.Completions, CompletionBackup{
			SessionID:   c.SessionID,
			Mood:        string(c.Mood),
			Tokens:      c.Tokens,
			CompletedAt: c.CompletedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d journal entries, %d tokens, %d completed quests",
		len(backup.Journal), len(backup.Progress), len(backup.Completions))
	return nil
}

// Import restores a backup from a file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup. The journal is replaced and the
// progress log appended inside one transaction.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	progress := repository.NewProgressRepository(tx)
	for _, p := range backup.Progress {
		rec := models.ProgressRecord{
			SessionID:    p.SessionID,
			Slot:         p.Slot,
			Mood:         models.Mood(p.Mood),
			Message:      p.Message,
			UsedFallback: p.UsedFallback,
			EarnedAt:     p.EarnedAt,
		}
		if err := progress.ImportRecord(rec); err != nil {
			return fmt.Errorf("failed to import progress: %w", err)
		}
	}
	for _, c := range backup.Completions {
		completion := models.QuestCompletion{
			SessionID:   c.SessionID,
			Mood:        models.Mood(c.Mood),
			Tokens:      c.Tokens,
			CompletedAt: c.CompletedAt,
		}
		if err := progress.ImportCompletion(completion); err != nil {
			return fmt.Errorf("failed to import completions: %w", err)
		}
	}

	if backup.Journal != nil {
		if err := s.journalStore(tx).Save(ctx, s.journalKey, backup.Journal); err != nil {
			return fmt.Errorf("failed to import journal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported: %d journal entries, %d tokens, %d completed quests",
		len(backup.Journal), len(backup.Progress), len(backup.Completions))
	return nil
}

func (s *BackupService) journalStore(db database.DBTX) repository.JournalStore {
	if s.journal != nil {
		return s.journal
	}
	return repository.NewSQLJournalStore(db)
}
