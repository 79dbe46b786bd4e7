package database

import (
	"testing"
)

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	migrator := NewMigrator(db)

	applied, err := migrator.Run()
	if err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected no pending migrations, applied %d", applied)
	}

	statuses, err := migrator.Status()
	if err != nil {
		t.Fatalf("Failed to get migration status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("Expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied || s.AppliedAt == nil {
			t.Errorf("Expected migration %s to be applied", s.Name)
		}
	}
}

func TestMigrator_LoadMigrations(t *testing.T) {
	for _, dbType := range []string{TypeSQLite, TypePostgres} {
		t.Run(dbType, func(t *testing.T) {
			migrator := NewMigrator(&DB{dbType: dbType})

			migrations, err := migrator.LoadMigrations()
			if err != nil {
				t.Fatalf("Failed to load migrations: %v", err)
			}
			if len(migrations) == 0 {
				t.Fatal("Expected embedded migrations")
			}
			if migrations[0].Version != "001" {
				t.Errorf("Expected first version 001, got %s", migrations[0].Version)
			}
			for i := 1; i < len(migrations); i++ {
				if migrations[i-1].Version >= migrations[i].Version {
					t.Errorf("Migrations out of order: %s before %s", migrations[i-1].Version, migrations[i].Version)
				}
			}
		})
	}
}
