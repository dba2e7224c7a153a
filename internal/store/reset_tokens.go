package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/apperrors"
)

var (
	ErrResetTokenInvalid = apperrors.Validation("Invalid or expired reset token")
)

// CreateResetToken persists a reset token and clears the user's expired
// ones.
func (s *PostgresStore) CreateResetToken(ctx context.Context, userId uuid.UUID, token string, expiresAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1 AND expires_at <= now();`, userId); err != nil {
			return fmt.Errorf("error purging expired reset tokens: %w", err)
		}

		query := `INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ($1, $2, $3);`

		if _, err := tx.ExecContext(ctx, query, token, userId, expiresAt); err != nil {
			return fmt.Errorf("error inserting reset token: %w", err)
		}

		return nil
	})
}

// ConsumeResetToken deletes an unexpired token and sets the owner's password
// hash in the same transaction. The delete makes the token single use even
// under concurrent attempts.
func (s *PostgresStore) ConsumeResetToken(ctx context.Context, token string, passwordHash string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var userId uuid.UUID

		query := `DELETE FROM password_reset_tokens WHERE token = $1 AND expires_at > now() RETURNING user_id;`

		if err := tx.QueryRowContext(ctx, query, token).Scan(&userId); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrResetTokenInvalid
			}

			return fmt.Errorf("error consuming reset token: %w", err)
		}

		res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2;`, passwordHash, userId)

		if err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrResetTokenInvalid
		}

		return nil
	})
}
