package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var testUserCounter int64 = 0

// CreateTestUser creates a unique user row for testing purposes.
func CreateTestUser(t *testing.T, db *DB) *User {
	t.Helper()
	testUserCounter++

	telegramID := 100000 + testUserCounter
	email := fmt.Sprintf("testuser%d@example.com", testUserCounter)

	user, err := db.CreateUser(telegramID, email, "Yoman")
	require.NoError(t, err, "failed to create test user")

	return user
}
