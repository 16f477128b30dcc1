package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/database"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectUserColumns = `
	id, email, password_hash, first_name, last_name, role, email_confirmed, google_id, created_at, updated_at
`

func scanUser(s scanner) (*user.User, error) {
	var u user.User

	var role string

	if err := s.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role,
		&u.EmailConfirmed, &u.GoogleID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = user.Role(role)

	return &u, nil
}

func (s *Store) getBy(ctx context.Context, column string, value any) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE ` + column + ` = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}

		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}

	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getBy(ctx, "email", user.NormalizeEmail(email))
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	return s.getBy(ctx, "google_id", googleID)
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role, email_confirmed, google_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
		u.EmailConfirmed,
		u.GoogleID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return apperr.DuplicateEmail("Email %s is already registered", u.Email)
		}

		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*user.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, role = $4, email_confirmed = $5, google_id = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.Email,
		u.FirstName,
		u.LastName,
		u.Role,
		u.EmailConfirmed,
		u.GoogleID,
		u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}

		if database.IsUniqueViolation(err, "users_email_key") {
			return apperr.DuplicateEmail("Email %s is already registered", u.Email)
		}

		return fmt.Errorf("updating user: %w", err)
	}

	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return expectOne(res, "User not found")
}

// DeleteUser removes the user; the owned company and everything beneath it
// go with it through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return expectOne(res, "User not found")
}

func expectOne(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}

	if n == 0 {
		return apperr.NotFound("%s", notFound)
	}

	return nil
}
