package db

import (
	"path/filepath"
	"testing"
)

func TestMigrateUpCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	if err := MigrateUp(path); err != nil {
		t.Fatalf("MigrateUp returned error: %v", err)
	}

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		t.Fatalf("failed to open migrated database: %v", err)
	}
	defer conn.Close()

	var name string
	err = conn.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='generation_history'`,
	).Scan(&name)
	if err != nil {
		t.Fatalf("generation_history table missing: %v", err)
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	if err := MigrateUp(path); err != nil {
		t.Fatalf("first MigrateUp returned error: %v", err)
	}
	if err := MigrateUp(path); err != nil {
		t.Errorf("second MigrateUp returned error: %v", err)
	}

	version, dirty, err := MigrationVersion(path)
	if err != nil {
		t.Fatalf("MigrationVersion returned error: %v", err)
	}
	if dirty {
		t.Error("database left in dirty state")
	}
	if version == 0 {
		t.Error("no migration version recorded")
	}
}

func TestMigrateDownRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	if err := MigrateUp(path); err != nil {
		t.Fatalf("MigrateUp returned error: %v", err)
	}
	if err := MigrateDown(path, -1); err != nil {
		t.Fatalf("MigrateDown returned error: %v", err)
	}

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer conn.Close()

	var count int
	err = conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='generation_history'`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Error("generation_history table still exists after rollback")
	}
}
