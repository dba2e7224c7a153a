package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/models"
)

func defaultShelf(t *testing.T, db *PostgresStore, userId uuid.UUID) *models.Shelf {
	t.Helper()

	shelves, err := db.ListShelves(context.Background(), userId)

	if err != nil {
		t.Fatal(err)
	}

	for _, s := range shelves {
		if s.IsDefault {
			return &s
		}
	}

	t.Fatal("expected a default shelf")
	return nil
}

func TestListShelvesOrder(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()

	if _, err := db.CreateShelf(ctx, user.Id, "Abandoned"); err != nil {
		t.Fatal(err)
	}

	shelves, err := db.ListShelves(ctx, user.Id)

	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Completed", "Reading", "To Read", "Abandoned"}

	if len(shelves) != len(want) {
		t.Fatalf("expected %d shelves, got %d", len(want), len(shelves))
	}

	for i, name := range want {
		if shelves[i].Name != name {
			t.Fatalf("expected %s at %d, got %s", name, i, shelves[i].Name)
		}
	}
}

func TestDefaultShelvesAreImmutable(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	ctx := context.Background()
	shelf := defaultShelf(t, db, user.Id)

	if _, err := db.RenameShelf(ctx, user.Id, shelf.Id, "Renamed"); !errors.Is(err, ErrShelfNotEditable) {
		t.Fatalf("expected %v, got %v", ErrShelfNotEditable, err)
	}

	if err := db.DeleteShelf(ctx, user.Id, shelf.Id); !errors.Is(err, ErrShelfNotDeletable) {
		t.Fatalf("expected %v, got %v", ErrShelfNotDeletable, err)
	}
}

func TestCustomShelfLifecycle(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	other := createTestUser(t, db)
	ctx := context.Background()

	shelf, err := db.CreateShelf(ctx, user.Id, "Favourites")

	if err != nil {
		t.Fatal(err)
	}

	if shelf.IsDefault {
		t.Fatal("expected a custom shelf")
	}

	renamed, err := db.RenameShelf(ctx, user.Id, shelf.Id, "All-time favourites")

	if err != nil {
		t.Fatal(err)
	}

	if renamed.Name != "All-time favourites" {
		t.Fatalf("expected All-time favourites, got %s", renamed.Name)
	}

	if _, err := db.RenameShelf(ctx, other.Id, shelf.Id, "Mine now"); !errors.Is(err, ErrShelfNotEditable) {
		t.Fatalf("expected %v, got %v", ErrShelfNotEditable, err)
	}

	book, err := db.CreateBook(ctx, &models.Book{UserId: user.Id, Title: "Dune", Status: models.StatusDropped})

	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := db.AddBookToShelf(ctx, user.Id, shelf.Id, book.Id); err != nil {
			t.Fatalf("expected add #%d to succeed, got %v", i+1, err)
		}
	}

	ids, err := db.GetBookShelfIds(ctx, user.Id, book.Id)

	if err != nil {
		t.Fatal(err)
	}

	if len(ids) != 1 || ids[0] != shelf.Id {
		t.Fatalf("expected exactly one membership, got %v", ids)
	}

	if err := db.DeleteShelf(ctx, user.Id, shelf.Id); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetBook(ctx, user.Id, book.Id); err != nil {
		t.Fatalf("expected the book to survive its shelf, got %v", err)
	}
}

func TestShelfMembershipOwnership(t *testing.T) {
	db := setUpTestDb(t)
	user := createTestUser(t, db)
	other := createTestUser(t, db)
	ctx := context.Background()

	shelf := defaultShelf(t, db, user.Id)
	foreignBook, err := db.CreateBook(ctx, &models.Book{UserId: other.Id, Title: "Theirs", Status: models.StatusDropped})

	if err != nil {
		t.Fatal(err)
	}

	if err := db.AddBookToShelf(ctx, user.Id, shelf.Id, foreignBook.Id); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected %v, got %v", ErrBookNotFound, err)
	}

	if err := db.AddBookToShelf(ctx, other.Id, shelf.Id, foreignBook.Id); !errors.Is(err, ErrShelfNotFound) {
		t.Fatalf("expected %v, got %v", ErrShelfNotFound, err)
	}

	if err := db.RemoveBookFromShelf(ctx, other.Id, shelf.Id, foreignBook.Id); !errors.Is(err, ErrShelfNotFound) {
		t.Fatalf("expected %v, got %v", ErrShelfNotFound, err)
	}
}
