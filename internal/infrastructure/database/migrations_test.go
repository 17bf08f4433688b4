package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at testdata for the duration of t.
func useTestMigrations(t *testing.T) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	MigrationsFS, MigrationsDir = testMigrationsFS, "testdata"
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
}

func columnExists(t *testing.T, db *DB, table, column string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		t.Fatalf("pragma_table_info: %v", err)
	}
	return n > 0
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !columnExists(t, db, "test_presets", "owner") {
		t.Error("second migration not applied")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("status = %d applied, %d pending, want 2 and 0", len(applied), len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if columnExists(t, db, "test_presets", "owner") {
		t.Error("owner column still present after rollback")
	}
	if !columnExists(t, db, "test_presets", "name") {
		t.Error("first migration rolled back too")
	}

	_, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "add_owner" {
		t.Errorf("pending = %+v, want add_owner", pending)
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)

	if err := db.MigrateDown(context.Background()); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestMigrate_NoMigrations(t *testing.T) {
	origFS, origDir := MigrationsFS, MigrationsDir
	defer func() { MigrationsFS, MigrationsDir = origFS, origDir }()
	MigrationsFS, MigrationsDir = embed.FS{}, "."

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantIsUp    bool
		wantOk      bool
	}{
		{"20260101_000000_camera_properties.up.sql", "20260101_000000", "camera_properties", true, true},
		{"20260101_000000_camera_properties.down.sql", "20260101_000000", "camera_properties", false, true},
		{"20260101_000000.up.sql", "20260101_000000", "20260101_000000", true, true},
		{"readme.txt", "", "", false, false},
		{"20260101_000000_camera_properties.sql", "", "", false, false},
		{"invalid.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || isUp != tt.wantIsUp {
				t.Errorf("parseMigrationFilename() = (%q, %q, %v), want (%q, %q, %v)",
					version, name, isUp, tt.wantVersion, tt.wantName, tt.wantIsUp)
			}
		})
	}
}
