package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/models"
)

var (
	ErrUserNotFound = apperrors.NotFound("User not found")
	ErrEmailTaken   = apperrors.Conflict("This email is already registered. Try logging in instead.")
)

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row scanner) (*models.User, error) {
	var user models.User

	if err := row.Scan(&user.Id, &user.Name, &user.Email, &user.Password, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}

	return &user, nil
}

// CreateUser inserts the user and its default shelves in one transaction.
// Email is stored lower-cased; an empty role means "user".
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	var created *models.User

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING %s;
		`, userColumns)

		var err error
		created, err = scanUser(tx.QueryRowContext(ctx, query, user.Name, strings.ToLower(strings.TrimSpace(user.Email)), user.Password, role))

		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}

			return fmt.Errorf("error inserting user: %w", err)
		}

		query = `
			INSERT INTO shelves (user_id, name, is_default)
			SELECT $1, unnest($2::text[]), TRUE;
		`

		if _, err := tx.ExecContext(ctx, query, created.Id, pq.Array(models.DefaultShelves)); err != nil {
			return fmt.Errorf("error creating default shelves: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1;`, userColumns)

	user, err := scanUser(s.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying users table: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1;`, userColumns)

	user, err := scanUser(s.DB.QueryRowContext(ctx, query, id))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying users table: %w", err)
	}

	return user, nil
}

// GetUserRole reads the authoritative role, ignoring whatever a token claims.
func (s *PostgresStore) GetUserRole(ctx context.Context, id uuid.UUID) (string, error) {
	var role string

	if err := s.DB.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1;`, id).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}

		return "", fmt.Errorf("error querying user role: %w", err)
	}

	return role, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC;`, userColumns)

	rows, err := s.DB.QueryContext(ctx, query)

	if err != nil {
		return nil, fmt.Errorf("error querying users table: %w", err)
	}

	defer rows.Close()

	users := []models.User{}

	for rows.Next() {
		user, err := scanUser(rows)

		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}

		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// DeleteUser removes the user; books, shelves and reset tokens cascade.
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1;`, id)

	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	n, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}

	if n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateProfile applies the non-nil fields in one transaction and returns the
// updated user.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id uuid.UUID, name *string, passwordHash *string) (*models.User, error) {
	var updated *models.User

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var setClauses []string
		var args []any
		index := 1

		if name != nil {
			setClauses = append(setClauses, fmt.Sprintf("name = $%d", index))
			args = append(args, *name)
			index++
		}

		if passwordHash != nil {
			setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", index))
			args = append(args, *passwordHash)
			index++
		}

		if len(setClauses) > 0 {
			args = append(args, id)
			query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d;`, strings.Join(setClauses, ", "), index)

			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("error updating user: %w", err)
			}
		}

		query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1;`, userColumns)

		var err error
		updated, err = scanUser(tx.QueryRowContext(ctx, query, id))

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}

			return fmt.Errorf("error querying users table: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

// EnsureAdmin creates an admin account for email, or promotes the existing
// one. The password of an existing account is left untouched.
func (s *PostgresStore) EnsureAdmin(ctx context.Context, name, email, passwordHash string) (created bool, err error) {
	existing, err := s.GetUserByEmail(ctx, email)

	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return false, err
	}

	if existing != nil {
		if existing.Role == models.RoleAdmin {
			return false, nil
		}

		if _, err := s.DB.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2;`, models.RoleAdmin, existing.Id); err != nil {
			return false, fmt.Errorf("error promoting user: %w", err)
		}

		return false, nil
	}

	_, err = s.CreateUser(ctx, &models.User{Name: name, Email: email, Password: passwordHash, Role: models.RoleAdmin})

	if err != nil {
		return false, err
	}

	return true, nil
}
