// ABOUTME: Shared helpers for store tests
// ABOUTME: Temp-dir SQLite stores, units of work, and entity fixtures

package store

import (
	"context"
	"path/filepath"
	"testing"
)

// newTestStore creates a real SQLite store in a temp directory.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// begin opens a unit of work that rolls back at test cleanup unless
// the test commits it first.
func begin(t *testing.T, s *SQLiteStore) *UnitOfWork {
	t.Helper()

	uow, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	t.Cleanup(func() { _ = uow.Rollback() })
	return uow
}

// commit commits the unit of work, failing the test on error.
func commit(t *testing.T, uow *UnitOfWork) {
	t.Helper()

	if err := uow.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func createTestUser(t *testing.T, uow *UnitOfWork, email string) *User {
	t.Helper()

	u, err := uow.Users.Create(context.Background(), email, "hashed-secret", nil, nil)
	if err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return u
}

func createTestStack(t *testing.T, uow *UnitOfWork, userID string) *Stack {
	t.Helper()

	name := "Test Stack"
	st, err := uow.Stacks.Create(context.Background(), userID, StackParams{Name: &name})
	if err != nil {
		t.Fatalf("creating test stack: %v", err)
	}
	return st
}

func strptr(s string) *string {
	return &s
}
