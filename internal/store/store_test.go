package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/models"
)

// setUpTestDb connects to TEST_DB_CONN and applies the schema. Tests that
// need a database are skipped when it is unset.
func setUpTestDb(t *testing.T) *PostgresStore {
	t.Helper()

	conn := os.Getenv("TEST_DB_CONN")

	if conn == "" {
		t.Skip("TEST_DB_CONN not set")
	}

	db, err := NewPostgresStore(conn, Options{MaxOpenConns: 5})

	if err != nil {
		t.Fatalf("error opening db connection: %v", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("error migrating db: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser registers a throwaway user and removes it, and everything it
// owns, when the test ends.
func createTestUser(t *testing.T, db *PostgresStore) *models.User {
	t.Helper()

	user, err := db.CreateUser(context.Background(), &models.User{
		Name:     "test user",
		Email:    fmt.Sprintf("test-%s@example.com", uuid.NewString()),
		Password: "not-a-real-hash",
	})

	if err != nil {
		t.Fatalf("error creating user: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM users WHERE id = $1`, user.Id)
	})

	return user
}
