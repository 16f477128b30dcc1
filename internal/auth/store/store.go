package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	userStore "github.com/MrJamesThe3rd/invoicer/internal/user/store"
)

// Store backs the authentication flow: user records come from the user
// store, security tokens live in the security_tokens table.
type Store struct {
	*userStore.Store
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{Store: userStore.New(db), db: db}
}

func (s *Store) SaveToken(ctx context.Context, t auth.SecurityToken) error {
	query := `
		INSERT INTO security_tokens (user_id, purpose, value_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET value_hash = EXCLUDED.value_hash, expires_at = EXCLUDED.expires_at, created_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, t.UserID, t.Purpose, t.Hash, t.ExpiresAt); err != nil {
		return fmt.Errorf("saving %s token: %w", t.Purpose, err)
	}

	return nil
}

func (s *Store) GetToken(ctx context.Context, userID uuid.UUID, purpose auth.TokenPurpose) (*auth.SecurityToken, error) {
	query := `
		SELECT user_id, purpose, value_hash, expires_at
		FROM security_tokens
		WHERE user_id = $1 AND purpose = $2
	`

	var (
		t       auth.SecurityToken
		purpStr string
	)

	err := s.db.QueryRowContext(ctx, query, userID, purpose).Scan(&t.UserID, &purpStr, &t.Hash, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Token not found")
		}

		return nil, fmt.Errorf("getting %s token: %w", purpose, err)
	}

	t.Purpose = auth.TokenPurpose(purpStr)

	return &t, nil
}

// RotateRefreshToken is a single compare-and-swap UPDATE: two concurrent
// refreshes with the same token cannot both match the old hash.
func (s *Store) RotateRefreshToken(ctx context.Context, oldHash string, next auth.SecurityToken) (uuid.UUID, error) {
	query := `
		UPDATE security_tokens
		SET value_hash = $1, expires_at = $2, created_at = NOW()
		WHERE purpose = $3 AND value_hash = $4 AND expires_at > NOW()
		RETURNING user_id
	`

	var userID uuid.UUID

	err := s.db.QueryRowContext(ctx, query, next.Hash, next.ExpiresAt, auth.PurposeRefresh, oldHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, apperr.NotFound("Token not found")
		}

		return uuid.Nil, fmt.Errorf("rotating refresh token: %w", err)
	}

	return userID, nil
}

func (s *Store) DeleteTokenByHash(ctx context.Context, purpose auth.TokenPurpose, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM security_tokens WHERE purpose = $1 AND value_hash = $2`,
		purpose, hash,
	)
	if err != nil {
		return fmt.Errorf("deleting %s token: %w", purpose, err)
	}

	return nil
}

func (s *Store) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	} else if n == 0 {
		return apperr.NotFound("User not found")
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM security_tokens WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("clearing security tokens: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
