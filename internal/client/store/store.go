package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
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

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectClientColumns = `
	id, company_id, name, email, phone, address_line1, address_line2, city, state, postal_code, country,
	tax_number, notes, created_at, updated_at
`

func scanClient(s scanner) (*client.Client, error) {
	var c client.Client

	if err := s.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode, &c.Country,
		&c.TaxNumber, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

func scanClients(rows *sql.Rows) ([]*client.Client, error) {
	defer rows.Close()

	var clients []*client.Client

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}

		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

func insertClient(ctx context.Context, q querier, c *client.Client) error {
	query := `
		INSERT INTO clients (
			company_id, name, email, phone, address_line1, address_line2, city, state, postal_code, country,
			tax_number, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		c.CompanyID, c.Name, c.Email, c.Phone, c.AddressLine1, c.AddressLine2, c.City, c.State,
		c.PostalCode, c.Country, c.TaxNumber, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	return nil
}

func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	return insertClient(ctx, s.db, c)
}

func getClient(ctx context.Context, q querier, companyID, id uuid.UUID, lock bool) (*client.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients WHERE id = $1 AND company_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	c, err := scanClient(q.QueryRowContext(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Client not found")
		}

		return nil, fmt.Errorf("getting client: %w", err)
	}

	return c, nil
}

func (s *Store) GetClient(ctx context.Context, companyID, id uuid.UUID) (*client.Client, error) {
	return getClient(ctx, s.db, companyID, id, false)
}

func (s *Store) ListClients(ctx context.Context, companyID uuid.UUID) ([]*client.Client, error) {
	query := `SELECT ` + selectClientColumns + `
		FROM clients
		WHERE company_id = $1
		ORDER BY name ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	return scanClients(rows)
}

func (s *Store) UpdateClient(ctx context.Context, c *client.Client) error {
	query := `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, address_line1 = $4, address_line2 = $5, city = $6, state = $7,
			postal_code = $8, country = $9, tax_number = $10, notes = $11, updated_at = NOW()
		WHERE id = $12 AND company_id = $13
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Name, c.Email, c.Phone, c.AddressLine1, c.AddressLine2, c.City, c.State,
		c.PostalCode, c.Country, c.TaxNumber, c.Notes, c.ID, c.CompanyID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Client not found")
		}

		return fmt.Errorf("updating client: %w", err)
	}

	return nil
}

func (s *Store) DeleteClient(ctx context.Context, companyID, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	c, err := getClient(ctx, dbTx, companyID, id, true)
	if err != nil {
		return err
	}

	snapshot := `
		UPDATE invoices
		SET client_id = NULL, client_name = $1, client_email = $2, client_address = $3, updated_at = NOW()
		WHERE client_id = $4 AND company_id = $5
	`
	if _, err := dbTx.ExecContext(ctx, snapshot, c.Name, c.Email, c.Address(), c.ID, companyID); err != nil {
		return fmt.Errorf("snapshotting client into invoices: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND company_id = $2`, id, companyID); err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func importLockKey(companyID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("clients"))
	h.Write([]byte{0})
	h.Write(companyID[:])

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

// BeginImport opens a transaction holding the company's client import lock,
// so concurrent imports cannot both miss each other's rows.
func (s *Store) BeginImport(ctx context.Context, companyID uuid.UUID) (client.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(companyID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindByEmails(ctx context.Context, companyID uuid.UUID, emails []string) ([]*client.Client, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	query := `SELECT ` + selectClientColumns + `
		FROM clients
		WHERE company_id = $1 AND LOWER(email) = ANY($2)`

	rows, err := itx.tx.QueryContext(ctx, query, companyID, emails)
	if err != nil {
		return nil, fmt.Errorf("finding clients by email: %w", err)
	}

	return scanClients(rows)
}

func (itx *importTx) CreateClients(ctx context.Context, clients []*client.Client) error {
	for _, c := range clients {
		if err := insertClient(ctx, itx.tx, c); err != nil {
			return err
		}
	}

	return nil
}
