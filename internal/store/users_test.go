package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/models"
)

func TestCreateUser(t *testing.T) {
	db := setUpTestDb(t)
	ctx := context.Background()

	t.Run("should create the user with default shelves", func(t *testing.T) {
		user := createTestUser(t, db)

		if user.Role != models.RoleUser {
			t.Fatalf("expected role %s, got %s", models.RoleUser, user.Role)
		}

		shelves, err := db.ListShelves(ctx, user.Id)

		if err != nil {
			t.Fatal(err)
		}

		if len(shelves) != 3 {
			t.Fatalf("expected 3 shelves, got %d", len(shelves))
		}

		for _, shelf := range shelves {
			if !shelf.IsDefault {
				t.Fatalf("expected %s to be a default shelf", shelf.Name)
			}
		}
	})

	t.Run("should reject a duplicate email regardless of case", func(t *testing.T) {
		user := createTestUser(t, db)

		_, err := db.CreateUser(ctx, &models.User{
			Name:     "other",
			Email:    strings.ToUpper(user.Email),
			Password: "hash",
		})

		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected %v, got %v", ErrEmailTaken, err)
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)

	got, err := db.GetUserByEmail(context.Background(), "  "+strings.ToUpper(user.Email))

	if err != nil {
		t.Fatal(err)
	}

	if got.Id != user.Id {
		t.Fatalf("expected %s, got %s", user.Id, got.Id)
	}

	if _, err := db.GetUserByEmail(context.Background(), "missing-"+uuid.NewString()+"@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected %v, got %v", ErrUserNotFound, err)
	}
}

func TestGetUserRoleReflectsPromotion(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()

	if _, err := db.Exec(`UPDATE users SET role = 'admin' WHERE id = $1`, user.Id); err != nil {
		t.Fatal(err)
	}

	role, err := db.GetUserRole(ctx, user.Id)

	if err != nil {
		t.Fatal(err)
	}

	if role != models.RoleAdmin {
		t.Fatalf("expected %s, got %s", models.RoleAdmin, role)
	}

	if _, err := db.GetUserRole(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected %v, got %v", ErrUserNotFound, err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()

	if _, err := db.CreateBook(ctx, &models.Book{UserId: user.Id, Title: "Dune", Status: models.StatusReading}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteUser(ctx, user.Id); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM books WHERE user_id = $1`, user.Id).Scan(&count); err != nil {
		t.Fatal(err)
	}

	if count != 0 {
		t.Fatalf("expected books to be deleted, got %d", count)
	}

	if err := db.DeleteUser(ctx, user.Id); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected %v, got %v", ErrUserNotFound, err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()

	name := "renamed"
	hash := "new-hash"

	updated, err := db.UpdateProfile(ctx, user.Id, &name, &hash)

	if err != nil {
		t.Fatal(err)
	}

	if updated.Name != name || updated.Password != hash {
		t.Fatalf("expected name %s and hash %s, got %s and %s", name, hash, updated.Name, updated.Password)
	}

	unchanged, err := db.UpdateProfile(ctx, user.Id, nil, nil)

	if err != nil {
		t.Fatal(err)
	}

	if unchanged.Name != name {
		t.Fatalf("expected %s, got %s", name, unchanged.Name)
	}

	if _, err := db.UpdateProfile(ctx, uuid.New(), &name, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected %v, got %v", ErrUserNotFound, err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	db := setUpTestDb(t)
	ctx := context.Background()
	email := "admin-" + uuid.NewString() + "@example.com"

	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE email = $1`, email) })

	created, err := db.EnsureAdmin(ctx, "Admin", email, "hash")

	if err != nil {
		t.Fatal(err)
	}

	if !created {
		t.Fatal("expected the admin to be created")
	}

	created, err = db.EnsureAdmin(ctx, "Admin", email, "hash")

	if err != nil {
		t.Fatal(err)
	}

	if created {
		t.Fatal("expected the second call to be a no-op")
	}

	user, err := db.GetUserByEmail(ctx, email)

	if err != nil {
		t.Fatal(err)
	}

	if user.Role != models.RoleAdmin {
		t.Fatalf("expected %s, got %s", models.RoleAdmin, user.Role)
	}
}

func TestResetTokens(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()

	token := "token-" + uuid.NewString()

	if err := db.CreateResetToken(ctx, user.Id, token, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	if err := db.ConsumeResetToken(ctx, token, "new-hash"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetUserById(ctx, user.Id)

	if err != nil {
		t.Fatal(err)
	}

	if got.Password != "new-hash" {
		t.Fatalf("expected new-hash, got %s", got.Password)
	}

	if err := db.ConsumeResetToken(ctx, token, "again"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected replay to fail with %v, got %v", ErrResetTokenInvalid, err)
	}

	expired := "expired-" + uuid.NewString()

	if err := db.CreateResetToken(ctx, user.Id, expired, time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	if err := db.ConsumeResetToken(ctx, expired, "hash"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected expired token to fail with %v, got %v", ErrResetTokenInvalid, err)
	}
}
