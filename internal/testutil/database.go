// Package testutil provides fixtures for tests: an in-memory review log
// database and a builder for source tables.
package testutil

import (
	"context"
	"testing"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/storage"
)

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	// Edits are appended in order after migration.
	Edits          []model.EditRecord
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	store := override.NewStore(db)
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for i := range opts.Edits {
		if err := db.AppendEdit(ctx, &opts.Edits[i]); err != nil {
			t.Fatalf("failed to seed edit %s: %v", opts.Edits[i].ID, err)
		}
	}

	return db
}
