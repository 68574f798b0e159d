package repository

import (
	"database/sql"
	"fmt"
	"time"

	"readingquest/internal/database"
	"readingquest/internal/models"
)

// ProgressRepository records earned tokens and completed quests
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// RecordToken stores one earned token
func (r *ProgressRepository) RecordToken(sessionID string, slot int, mood models.Mood, message string, usedFallback bool) (*models.ProgressRecord, error) {
	query := `
		INSERT INTO progress_records (session_id, slot, mood, message, used_fallback)
		VALUES (?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query, sessionID, slot, string(mood), message, usedFallback)
	if err != nil {
		return nil, fmt.Errorf("failed to record token: %w", err)
	}

	return &models.ProgressRecord{
		ID:           id,
		SessionID:    sessionID,
		Slot:         slot,
		Mood:         mood,
		Message:      message,
		UsedFallback: usedFallback,
		EarnedAt:     time.Now(),
	}, nil
}

// RecordCompletion stores a quest that reached the destination stage
func (r *ProgressRepository) RecordCompletion(sessionID string, mood models.Mood, tokens int) (*models.QuestCompletion, error) {
	query := `
		INSERT INTO quest_completions (session_id, mood, tokens)
		VALUES (?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query, sessionID, string(mood), tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to record quest completion: %w", err)
	}

	return &models.QuestCompletion{
		ID:          id,
		SessionID:   sessionID,
		Mood:        mood,
		Tokens:      tokens,
		CompletedAt: time.Now(),
	}, nil
}

// GetSessionRecords returns the tokens earned in a session in the order they were earned
func (r *ProgressRepository) GetSessionRecords(sessionID string) ([]models.ProgressRecord, error) {
	query := `
		SELECT id, session_id, slot, mood, message, used_fallback, earned_at
		FROM progress_records
		WHERE session_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var rec models.ProgressRecord
		var mood string
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Slot,
			&mood,
			&rec.Message,
			&rec.UsedFallback,
			&rec.EarnedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		rec.Mood = models.Mood(mood)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStats summarises all recorded progress
func (r *ProgressRepository) GetStats() (*models.ProgressStats, error) {
	stats := &models.ProgressStats{}

	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN used_fallback THEN 1 ELSE 0 END), 0)
		FROM progress_records
	`
	if err := r.db.QueryRow(query).Scan(&stats.TokensEarned, &stats.FallbackCount); err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	err := r.db.QueryRow("SELECT COUNT(*) FROM quest_completions").Scan(&stats.QuestsCompleted)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}

	return stats, nil
}

// AllRecords returns every earned token in insertion order
func (r *ProgressRepository) AllRecords() ([]models.ProgressRecord, error) {
	query := `
		SELECT id, session_id, slot, mood, message, used_fallback, earned_at
		FROM progress_records
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var rec models.ProgressRecord
		var mood string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Slot, &mood, &rec.Message, &rec.UsedFallback, &rec.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		rec.Mood = models.Mood(mood)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// AllCompletions returns every completed quest in insertion order
func (r *ProgressRepository) AllCompletions() ([]models.QuestCompletion, error) {
	query := `
		SELECT id, session_id, mood, tokens, completed_at
		FROM quest_completions
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quest completions: %w", err)
	}
	defer rows.Close()

	var completions []models.QuestCompletion
	for rows.Next() {
		var c models.QuestCompletion
		var mood string
		if err := rows.Scan(&c.ID, &c.SessionID, &mood, &c.Tokens, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quest completion: %w", err)
		}
		c.Mood = models.Mood(mood)
		completions = append(completions, c)
	}

	return completions, rows.Err()
}

// ImportRecord stores a progress record keeping its original timestamp
func (r *ProgressRepository) ImportRecord(rec models.ProgressRecord) error {
	query := `
		INSERT INTO progress_records (session_id, slot, mood, message, used_fallback, earned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, rec.SessionID, rec.Slot, string(rec.Mood), rec.Message, rec.UsedFallback, rec.EarnedAt); err != nil {
		return fmt.Errorf("failed to import progress record: %w", err)
	}
	return nil
}

// ImportCompletion stores a quest completion keeping its original timestamp
func (r *ProgressRepository) ImportCompletion(c models.QuestCompletion) error {
	query := `
		INSERT INTO quest_completions (session_id, mood, tokens, completed_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, c.SessionID, string(c.Mood), c.Tokens, c.CompletedAt); err != nil {
		return fmt.Errorf("failed to import quest completion: %w", err)
	}
	return nil
}
