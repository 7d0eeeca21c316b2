package db

import (
	"context"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(context.Background(), d); err != nil {
		d.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { d.Close() })

	return d
}
