package db

import (
	"context"
	"testing"
)

// NewTestDB creates a migrated in-memory SQLite database for testing.
//
// IMPORTANT: Always use this function in tests, never use file-based databases.
// Using file-based databases in tests risks accidentally destroying real data
// if the test database path isn't properly isolated.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := NewTestDB(t)
//	    defer db.Close()
//
//	    // Use db for testing...
//	}
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}
