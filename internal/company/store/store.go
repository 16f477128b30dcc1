package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/database"
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

const selectCompanyColumns = `
	id, user_id, name, email, phone, website, address_line1, address_line2, city, state, postal_code, country,
	tax_number, registration_number, invoice_prefix, invoice_notes, payment_instructions, logo_key, logo_url,
	created_at, updated_at
`

func scanCompany(s scanner) (*company.Company, error) {
	var c company.Company

	if err := s.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Website,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode, &c.Country,
		&c.TaxNumber, &c.RegistrationNumber, &c.InvoicePrefix, &c.InvoiceNotes, &c.PaymentInstructions,
		&c.LogoKey, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) getBy(ctx context.Context, column string, value uuid.UUID) (*company.Company, error) {
	query := `SELECT ` + selectCompanyColumns + ` FROM companies WHERE ` + column + ` = $1`

	c, err := scanCompany(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Company not found")
		}

		return nil, fmt.Errorf("getting company by %s: %w", column, err)
	}

	return c, nil
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	return s.getBy(ctx, "id", id)
}

func (s *Store) GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*company.Company, error) {
	return s.getBy(ctx, "user_id", userID)
}

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (
			user_id, name, email, phone, website, address_line1, address_line2, city, state, postal_code, country,
			tax_number, registration_number, invoice_prefix, invoice_notes, payment_instructions, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.Email, c.Phone, c.Website, c.AddressLine1, c.AddressLine2, c.City, c.State,
		c.PostalCode, c.Country, c.TaxNumber, c.RegistrationNumber, c.InvoicePrefix, c.InvoiceNotes,
		c.PaymentInstructions,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "companies_user_id_key") {
			return apperr.Validation("Company already exists for this user")
		}

		return fmt.Errorf("creating company: %w", err)
	}

	return nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	query := `
		UPDATE companies
		SET name = $1, email = $2, phone = $3, website = $4, address_line1 = $5, address_line2 = $6, city = $7,
			state = $8, postal_code = $9, country = $10, tax_number = $11, registration_number = $12,
			invoice_prefix = $13, invoice_notes = $14, payment_instructions = $15, updated_at = NOW()
		WHERE id = $16
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Name, c.Email, c.Phone, c.Website, c.AddressLine1, c.AddressLine2, c.City, c.State,
		c.PostalCode, c.Country, c.TaxNumber, c.RegistrationNumber, c.InvoicePrefix, c.InvoiceNotes,
		c.PaymentInstructions, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Company not found")
		}

		return fmt.Errorf("updating company: %w", err)
	}

	return nil
}

func (s *Store) UpdateLogo(ctx context.Context, id uuid.UUID, key, url string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE companies SET logo_key = $1, logo_url = $2, updated_at = NOW() WHERE id = $3`,
		key, url, id,
	)
	if err != nil {
		return fmt.Errorf("updating logo: %w", err)
	}

	return nil
}
