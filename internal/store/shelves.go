package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/models"
)

var (
	ErrShelfNotFound     = apperrors.NotFound("Shelf not found")
	ErrShelfNotEditable  = apperrors.NotFound("Shelf not found or cannot edit default shelf")
	ErrShelfNotDeletable = apperrors.NotFound("Shelf not found or cannot delete default shelf")
)

const shelfColumns = `id, user_id, name, is_default, created_at`

func scanShelf(row scanner) (*models.Shelf, error) {
	var shelf models.Shelf

	if err := row.Scan(&shelf.Id, &shelf.UserId, &shelf.Name, &shelf.IsDefault, &shelf.CreatedAt); err != nil {
		return nil, err
	}

	return &shelf, nil
}

func (s *PostgresStore) ListShelves(ctx context.Context, userId uuid.UUID) ([]models.Shelf, error) {
	query := fmt.Sprintf(`SELECT %s FROM shelves WHERE user_id = $1 ORDER BY is_default DESC, name ASC;`, shelfColumns)

	rows, err := s.DB.QueryContext(ctx, query, userId)

	if err != nil {
		return nil, fmt.Errorf("error querying shelves: %w", err)
	}

	defer rows.Close()

	shelves := []models.Shelf{}

	for rows.Next() {
		shelf, err := scanShelf(rows)

		if err != nil {
			return nil, fmt.Errorf("error scanning shelf: %w", err)
		}

		shelves = append(shelves, *shelf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shelves: %w", err)
	}

	return shelves, nil
}

func (s *PostgresStore) GetShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) (*models.Shelf, error) {
	query := fmt.Sprintf(`SELECT %s FROM shelves WHERE id = $1 AND user_id = $2;`, shelfColumns)

	shelf, err := scanShelf(s.DB.QueryRowContext(ctx, query, shelfId, userId))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShelfNotFound
		}

		return nil, fmt.Errorf("error querying shelf: %w", err)
	}

	return shelf, nil
}

func (s *PostgresStore) CreateShelf(ctx context.Context, userId uuid.UUID, name string) (*models.Shelf, error) {
	query := fmt.Sprintf(`INSERT INTO shelves (user_id, name, is_default) VALUES ($1, $2, FALSE) RETURNING %s;`, shelfColumns)

	shelf, err := scanShelf(s.DB.QueryRowContext(ctx, query, userId, name))

	if err != nil {
		return nil, fmt.Errorf("error inserting shelf: %w", err)
	}

	return shelf, nil
}

// RenameShelf renames a custom shelf. Default shelves are reported as not
// found.
func (s *PostgresStore) RenameShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, name string) (*models.Shelf, error) {
	query := fmt.Sprintf(`
		UPDATE shelves SET name = $1
		WHERE id = $2 AND user_id = $3 AND NOT is_default
		RETURNING %s;
	`, shelfColumns)

	shelf, err := scanShelf(s.DB.QueryRowContext(ctx, query, name, shelfId, userId))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShelfNotEditable
		}

		return nil, fmt.Errorf("error renaming shelf: %w", err)
	}

	return shelf, nil
}

// DeleteShelf deletes a custom shelf. Memberships cascade; the books stay.
func (s *PostgresStore) DeleteShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM shelves WHERE id = $1 AND user_id = $2 AND NOT is_default;`, shelfId, userId)

	if err != nil {
		return fmt.Errorf("error deleting shelf: %w", err)
	}

	n, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}

	if n == 0 {
		return ErrShelfNotDeletable
	}

	return nil
}

// AddBookToShelf is idempotent: adding a book twice leaves one membership.
func (s *PostgresStore) AddBookToShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, bookId uuid.UUID) error {
	if err := s.ensureShelfOwned(ctx, userId, shelfId); err != nil {
		return err
	}

	if err := s.ensureBookOwned(ctx, userId, bookId); err != nil {
		return err
	}

	query := `INSERT INTO shelf_books (shelf_id, book_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`

	if _, err := s.DB.ExecContext(ctx, query, shelfId, bookId); err != nil {
		return fmt.Errorf("error adding book to shelf: %w", err)
	}

	return nil
}

func (s *PostgresStore) RemoveBookFromShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, bookId uuid.UUID) error {
	if err := s.ensureShelfOwned(ctx, userId, shelfId); err != nil {
		return err
	}

	if err := s.ensureBookOwned(ctx, userId, bookId); err != nil {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM shelf_books WHERE shelf_id = $1 AND book_id = $2;`, shelfId, bookId); err != nil {
		return fmt.Errorf("error removing book from shelf: %w", err)
	}

	return nil
}

func (s *PostgresStore) ensureShelfOwned(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) error {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM shelves WHERE id = $1 AND user_id = $2);`

	if err := s.DB.QueryRowContext(ctx, query, shelfId, userId).Scan(&exists); err != nil {
		return fmt.Errorf("error checking shelf ownership: %w", err)
	}

	if !exists {
		return ErrShelfNotFound
	}

	return nil
}
