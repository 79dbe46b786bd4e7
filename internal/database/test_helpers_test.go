package database

import (
	"path/filepath"
	"testing"
)

// setupTestDB opens a migrated SQLite database in a per-test temporary directory.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	config := Config{
		Type:       TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "natya_test.db"),
	}

	db, err := NewDB(config)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if _, err := NewMigrator(db).Run(); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return db, cleanup
}
