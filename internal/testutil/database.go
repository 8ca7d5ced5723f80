package testutil

import (
	"testing"

	"creatorvault/internal/creator"
	"creatorvault/internal/database"
)

// NewTestDatabase creates an in-memory SQLite database at the latest schema.
// The database is closed when the test completes.
func NewTestDatabase(t *testing.T) creator.Database {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
