package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "quest.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(""); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	tables := []string{"migrations", "journal_store", "progress_records", "quest_completions"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations a second time is a no-op
	if err := db.RunMigrations(""); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	insert := "INSERT INTO quest_completions (session_id, mood, tokens) VALUES (?, ?, ?)"

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	id, err := tx.ExecReturningID(insert, "s-1", "happy", 5)
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero insert ID")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	tx2, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}
	if _, err := tx2.Exec(insert, "s-2", "sad", 5); err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}
	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM quest_completions").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 completion after rollback, got %d", count)
	}
}

// TestJournalUpsert exercises the dialect upsert against SQLite
func TestJournalUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	upsert := db.Dialect.UpsertJournalQuery()

	if _, err := db.Exec(upsert, "journal", "[]"); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := db.Exec(upsert, "journal", `[{"date":"1/2/2026"}]`); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var payload string
	if err := db.QueryRow("SELECT payload FROM journal_store WHERE store_key = ?", "journal").Scan(&payload); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if payload != `[{"date":"1/2/2026"}]` {
		t.Errorf("payload = %q, want replaced value", payload)
	}
}
