package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/oseayemenre/bookshelf/internal/models"
)

//go:embed schema.sql
var schema string

type Store interface {
	PingContext(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserRole(ctx context.Context, id uuid.UUID) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name *string, passwordHash *string) (*models.User, error)

	CreateResetToken(ctx context.Context, userId uuid.UUID, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token string, passwordHash string) error

	ListBooks(ctx context.Context, filter *models.BookFilter) (*models.BookPage, error)
	GetBook(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) (*models.Book, error)
	UpdateBook(ctx context.Context, book *models.Book) (*models.Book, error)
	DeleteBook(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) error
	GetBookShelfIds(ctx context.Context, userId uuid.UUID, bookId uuid.UUID) ([]uuid.UUID, error)
	UpdateBookCover(ctx context.Context, userId uuid.UUID, bookId uuid.UUID, url string) (*models.Book, error)

	ListShelves(ctx context.Context, userId uuid.UUID) ([]models.Shelf, error)
	GetShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) (*models.Shelf, error)
	CreateShelf(ctx context.Context, userId uuid.UUID, name string) (*models.Shelf, error)
	RenameShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, name string) (*models.Shelf, error)
	DeleteShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) error
	AddBookToShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, bookId uuid.UUID) error
	RemoveBookFromShelf(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, bookId uuid.UUID) error
}

type PostgresStore struct {
	*sql.DB
}

type Options struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

func NewPostgresStore(conn string, opts Options) (*PostgresStore, error) {
	dsn, err := withRuntimeParams(conn, opts.StatementTimeout)

	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)

	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %v", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging db: %v", err)
	}

	return &PostgresStore{
		DB: db,
	}, nil
}

// withRuntimeParams adds statement_timeout and connect_timeout to a URL or
// key=value DSN. lib/pq forwards unknown keys to the server as runtime
// parameters.
func withRuntimeParams(conn string, statementTimeout time.Duration) (string, error) {
	params := map[string]string{"connect_timeout": "10"}
	if statementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	}

	if strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://") {
		u, err := url.Parse(conn)
		if err != nil {
			return "", fmt.Errorf("error parsing db connection string: %v", err)
		}

		q := u.Query()
		for k, v := range params {
			if q.Get(k) == "" {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()

		return u.String(), nil
	}

	out := conn
	for _, k := range []string{"connect_timeout", "statement_timeout"} {
		v, ok := params[k]
		if !ok || strings.Contains(conn, k+"=") {
			continue
		}
		out = strings.TrimSpace(out + " " + k + "=" + v)
	}

	return out, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}

	return nil
}

// withTx runs fn in a transaction, rolling back when fn or the commit fails.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func intPtr(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int64)
	return &v
}

const dateLayout = "2006-01-02"

func datePtr(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	v := t.Time.Format(dateLayout)
	return &v
}
