package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/models"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBookNotFound = apperrors.NotFound("Book not found")
)

func scanBook(row scanner) (*models.Book, error) {
	var book models.Book
	var isbn, publisher, coverUrl, category, notes sql.NullString
	var year, rating, totalPages, currentPage sql.NullInt64
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&book.Id,
		&book.UserId,
		&book.Title,
		pq.Array(&book.Authors),
		&isbn,
		&publisher,
		&year,
		&coverUrl,
		&category,
		pq.Array(&book.Tags),
		&notes,
		&book.Status,
		&rating,
		&totalPages,
		&currentPage,
		&startDate,
		&endDate,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	book.Isbn = stringPtr(isbn)
	book.Publisher = stringPtr(publisher)
	book.Year = intPtr(year)
	book.CoverUrl = stringPtr(coverUrl)
	book.Category = stringPtr(category)
	book.DescriptionNotes = stringPtr(notes)
	book.Rating = intPtr(rating)
	book.TotalPages = intPtr(totalPages)
	book.CurrentPage = intPtr(currentPage)
	book.StartDate = datePtr(startDate)
	book.EndDate = datePtr(endDate)

	if book.Authors == nil {
		book.Authors = []string{}
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}

	return &book, nil
}

// ListBooks runs the page, total and per-status count queries concurrently.
func (s *PostgresStore) ListBooks(ctx context.Context, filter *models.BookFilter) (*models.BookPage, error) {
	page, limit, _ := Paginate(filter.Page, filter.Limit)

	result := &models.BookPage{
		Books:        []models.Book{},
		Page:         page,
		Limit:        limit,
		StatusCounts: make(map[string]int, len(models.Statuses)),
	}

	for _, status := range models.Statuses {
		result.StatusCounts[status] = 0
	}

	counts := make(map[string]int, len(models.Statuses))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query, args := listBooksQuery(filter)

		rows, err := s.DB.QueryContext(ctx, query, args...)

		if err != nil {
			return fmt.Errorf("error querying books: %w", err)
		}

		defer rows.Close()

		for rows.Next() {
			book, err := scanBook(rows)

			if err != nil {
				return fmt.Errorf("error scanning book: %w", err)
			}

			result.Books = append(result.Books, *book)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating books: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		query, args := countBooksQuery(filter)

		if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&result.Total); err != nil {
			return fmt.Errorf("error counting books: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		query, args := statusCountsQuery(filter)

		rows, err := s.DB.QueryContext(ctx, query, args...)

		if err != nil {
			return fmt.Errorf("error counting books by status: %w", err)
		}

		defer rows.Close()

		for rows.Next() {
			var status string
			var count int

			if err := rows.Scan(&status, &count); err != nil {
				return fmt.Errorf("error scanning status count: %w", err)
			}

			counts[status] = count
		}

		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for status, count := range counts {
		result.StatusCounts[status] = count
	}

	return result, nil
}

func (s *PostgresStore) GetBook(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) (*models.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books b WHERE b.id = $1 AND b.user_id = $2`, bookColumns)

	book, err := scanBook(s.DB.QueryRowContext(ctx, query, bookId, userId))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}

		return nil, fmt.Errorf("error querying book: %w", err)
	}

	return book, nil
}

// CreateBook inserts the book and, unless it is dropped, places it on the
// owner's default shelf matching its status.
func (s *PostgresStore) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	var created *models.Book

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`
			INSERT INTO books AS b (
				user_id, title, authors, isbn, publisher, year, cover_url, category, tags,
				description_notes, status, rating, total_pages, current_page, start_date, end_date
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING %s;
		`, bookColumns)

		var err error
		created, err = scanBook(tx.QueryRowContext(ctx, query, bookArgs(book)...))

		if err != nil {
			return fmt.Errorf("error inserting book: %w", err)
		}

		shelf, ok := models.DefaultShelfForStatus(created.Status)

		if !ok {
			return nil
		}

		query = `
			INSERT INTO shelf_books (shelf_id, book_id)
			SELECT id, $2 FROM shelves
			WHERE user_id = $1 AND is_default AND lower(name) = lower($3)
			ON CONFLICT DO NOTHING;
		`

		if _, err := tx.ExecContext(ctx, query, created.UserId, created.Id, shelf); err != nil {
			return fmt.Errorf("error adding book to default shelf: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateBook replaces every editable field of an owned book. Shelf
// membership is left alone.
func (s *PostgresStore) UpdateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	query := fmt.Sprintf(`
		UPDATE books AS b SET
			title = $2, authors = $3, isbn = $4, publisher = $5, year = $6, cover_url = $7,
			category = $8, tags = $9, description_notes = $10, status = $11, rating = $12,
			total_pages = $13, current_page = $14, start_date = $15, end_date = $16,
			updated_at = now()
		WHERE b.user_id = $1 AND b.id = $17
		RETURNING %s;
	`, bookColumns)

	args := append(bookArgs(book), book.Id)

	updated, err := scanBook(s.DB.QueryRowContext(ctx, query, args...))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}

		return nil, fmt.Errorf("error updating book: %w", err)
	}

	return updated, nil
}

// bookArgs returns $1..$16 shared by insert and update.
func bookArgs(book *models.Book) []any {
	authors := book.Authors
	if authors == nil {
		authors = []string{}
	}
	tags := book.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		book.UserId,
		book.Title,
		pq.Array(authors),
		nullString(book.Isbn),
		nullString(book.Publisher),
		nullInt(book.Year),
		nullString(book.CoverUrl),
		nullString(book.Category),
		pq.Array(tags),
		nullString(book.DescriptionNotes),
		book.Status,
		nullInt(book.Rating),
		nullInt(book.TotalPages),
		nullInt(book.CurrentPage),
		nullString(book.StartDate),
		nullString(book.EndDate),
	}
}

// DeleteBook removes an owned book. Its shelf memberships go with it through
// the cascade on shelf_books.
func (s *PostgresStore) DeleteBook(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1 AND user_id = $2`, bookId, userId)

	if err != nil {
		return fmt.Errorf("error deleting book: %w", err)
	}

	n, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}

	if n == 0 {
		return ErrBookNotFound
	}

	return nil
}

func (s *PostgresStore) GetBookShelfIds(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) ([]uuid.UUID, error) {
	if err := s.ensureBookOwned(ctx, userId, bookId); err != nil {
		return nil, err
	}

	query := `
		SELECT sb.shelf_id
		FROM shelf_books sb
		JOIN shelves s ON (s.id = sb.shelf_id)
		WHERE sb.book_id = $1 AND s.user_id = $2
		ORDER BY s.is_default DESC, s.name ASC;
	`

	rows, err := s.DB.QueryContext(ctx, query, bookId, userId)

	if err != nil {
		return nil, fmt.Errorf("error querying book shelves: %w", err)
	}

	defer rows.Close()

	ids := []uuid.UUID{}

	for rows.Next() {
		var id uuid.UUID

		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning shelf id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book shelves: %w", err)
	}

	return ids, nil
}

func (s *PostgresStore) UpdateBookCover(ctx context.Context, userId uuid.UUID, bookId uuid.UUID, url string) (*models.Book, error) {
	query := fmt.Sprintf(`
		UPDATE books AS b SET cover_url = $3, updated_at = now()
		WHERE b.user_id = $1 AND b.id = $2
		RETURNING %s;
	`, bookColumns)

	book, err := scanBook(s.DB.QueryRowContext(ctx, query, userId, bookId, url))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}

		return nil, fmt.Errorf("error updating book cover: %w", err)
	}

	return book, nil
}

func (s *PostgresStore) ensureBookOwned(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) error {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1 AND user_id = $2);`

	if err := s.DB.QueryRowContext(ctx, query, bookId, userId).Scan(&exists); err != nil {
		return fmt.Errorf("error checking book ownership: %w", err)
	}

	if !exists {
		return ErrBookNotFound
	}

	return nil
}
