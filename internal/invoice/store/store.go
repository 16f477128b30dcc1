package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/database"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// The referenced client's current details are joined in, so reference mode
// invoices always show live data.
const selectInvoice = `
	SELECT i.id, i.company_id, i.invoice_number, i.client_id, i.client_name, i.client_email, i.client_address,
		i.issue_date, i.due_date, i.sub_total, i.tax_rate, i.tax_amount, i.total_amount, i.status,
		i.notes, i.payment_terms, i.payment_instructions, i.created_at, i.updated_at,
		c.name, c.email, c.address_line1, c.address_line2, c.city, c.state, c.postal_code, c.country
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.client_id AND c.company_id = i.company_id
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var (
		inv      invoice.Invoice
		clientID uuid.NullUUID
		status   string
		cName    sql.NullString
		cEmail   sql.NullString
		cAddr    [6]sql.NullString
	)

	if err := s.Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &clientID, &inv.ClientName, &inv.ClientEmail, &inv.ClientAddress,
		&inv.IssueDate, &inv.DueDate, &inv.SubTotal, &inv.TaxRate, &inv.TaxAmount, &inv.TotalAmount, &status,
		&inv.Notes, &inv.PaymentTerms, &inv.PaymentInstructions, &inv.CreatedAt, &inv.UpdatedAt,
		&cName, &cEmail, &cAddr[0], &cAddr[1], &cAddr[2], &cAddr[3], &cAddr[4], &cAddr[5],
	); err != nil {
		return nil, err
	}

	inv.Status = invoice.Status(status)
	inv.IssueDate = invoice.Date(inv.IssueDate)
	inv.DueDate = invoice.Date(inv.DueDate)

	if clientID.Valid && cName.Valid {
		id := clientID.UUID
		inv.ClientID = &id

		d := client.Details{
			AddressLine1: cAddr[0].String,
			AddressLine2: cAddr[1].String,
			City:         cAddr[2].String,
			State:        cAddr[3].String,
			PostalCode:   cAddr[4].String,
			Country:      cAddr[5].String,
		}
		inv.Client = &invoice.BillTo{Name: cName.String, Email: cEmail.String, Address: d.Address()}
	}

	return &inv, nil
}

func lockKey(companyID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("invoices"))
	h.Write([]byte{0})
	h.Write(companyID[:])

	return int64(h.Sum64())
}

type createTx struct {
	tx *sql.Tx
}

// BeginCreate opens a transaction holding the company's numbering lock.
func (s *Store) BeginCreate(ctx context.Context, companyID uuid.UUID) (invoice.CreateTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning invoice tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(companyID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring numbering lock: %w", err)
	}

	return &createTx{tx: dbTx}, nil
}

func (t *createTx) Commit() error   { return t.tx.Commit() }
func (t *createTx) Rollback() error { return t.tx.Rollback() }

func (t *createTx) LatestNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error) {
	return latestNumber(ctx, t.tx, companyID, prefix)
}

func (t *createTx) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			company_id, invoice_number, client_id, client_name, client_email, client_address,
			issue_date, due_date, sub_total, tax_rate, tax_amount, total_amount, status,
			notes, payment_terms, payment_instructions, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		inv.CompanyID, inv.Number, nullableID(inv.ClientID), inv.ClientName, inv.ClientEmail, inv.ClientAddress,
		inv.IssueDate, inv.DueDate, inv.SubTotal, inv.TaxRate, inv.TaxAmount, inv.TotalAmount, string(inv.Status),
		inv.Notes, inv.PaymentTerms, inv.PaymentInstructions,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "invoices_company_number_key") {
			return apperr.Validation("Invoice number %s is already in use, please retry", inv.Number)
		}

		return fmt.Errorf("creating invoice: %w", err)
	}

	return insertItems(ctx, t.tx, inv)
}

func nullableID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}

	return uuid.NullUUID{UUID: *id, Valid: true}
}

func insertItems(ctx context.Context, q querier, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range inv.Items {
		it := &inv.Items[i]

		err := q.QueryRowContext(ctx, query, inv.ID, i, it.Description, it.Quantity, it.UnitPrice, it.Amount).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("inserting invoice item: %w", err)
		}
	}

	return nil
}

func latestNumber(ctx context.Context, q querier, companyID uuid.UUID, prefix string) (string, error) {
	// Only numbers of the form <prefix><digits> count, highest sequence wins.
	query := `
		SELECT invoice_number
		FROM invoices
		WHERE company_id = $1
			AND LEFT(invoice_number, LENGTH($2::text)) = $2::text
			AND SUBSTRING(invoice_number FROM LENGTH($2::text) + 1) ~ '^[0-9]+$'
		ORDER BY CAST(SUBSTRING(invoice_number FROM LENGTH($2::text) + 1) AS NUMERIC) DESC, created_at DESC
		LIMIT 1
	`

	var number string

	err := q.QueryRowContext(ctx, query, companyID, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("getting latest invoice number: %w", err)
	}

	return number, nil
}

func (s *Store) LatestNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error) {
	return latestNumber(ctx, s.db, companyID, prefix)
}

func (s *Store) GetInvoice(ctx context.Context, companyID, id uuid.UUID) (*invoice.Invoice, error) {
	query := selectInvoice + ` WHERE i.id = $1 AND i.company_id = $2`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Invoice not found")
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	if err := s.loadItems(ctx, []*invoice.Invoice{inv}); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, companyID uuid.UUID, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	var (
		conds = []string{"i.company_id = $1"}
		args  = []any{companyID}
	)

	if filter.From != nil {
		args = append(args, invoice.Date(*filter.From))
		conds = append(conds, fmt.Sprintf("i.issue_date >= $%d", len(args)))
	}

	if filter.To != nil {
		args = append(args, invoice.Date(*filter.To))
		conds = append(conds, fmt.Sprintf("i.issue_date <= $%d", len(args)))
	}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("i.status = $%d", len(args)))
	}

	query := selectInvoice + ` WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY i.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	if err := s.loadItems(ctx, invoices); err != nil {
		return nil, err
	}

	return invoices, nil
}

func (s *Store) loadItems(ctx context.Context, invoices []*invoice.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*invoice.Invoice, len(invoices))
	ids := make([]string, 0, len(invoices))

	for _, inv := range invoices {
		byID[inv.ID] = inv
		ids = append(ids, inv.ID.String())
	}

	query := `
		SELECT id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = ANY($1::uuid[])
		ORDER BY invoice_id, position
	`

	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("loading invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it        invoice.Item
			invoiceID uuid.UUID
		)

		if err := rows.Scan(&it.ID, &invoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return fmt.Errorf("scanning invoice item: %w", err)
		}

		if inv, ok := byID[invoiceID]; ok {
			inv.Items = append(inv.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating invoice items: %w", err)
	}

	return nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice, replaceItems bool) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE invoices
		SET client_id = $1, client_name = $2, client_email = $3, client_address = $4,
			issue_date = $5, due_date = $6, sub_total = $7, tax_rate = $8, tax_amount = $9, total_amount = $10,
			status = $11, notes = $12, payment_terms = $13, payment_instructions = $14, updated_at = NOW()
		WHERE id = $15 AND company_id = $16
		RETURNING updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		nullableID(inv.ClientID), inv.ClientName, inv.ClientEmail, inv.ClientAddress,
		inv.IssueDate, inv.DueDate, inv.SubTotal, inv.TaxRate, inv.TaxAmount, inv.TotalAmount,
		string(inv.Status), inv.Notes, inv.PaymentTerms, inv.PaymentInstructions, inv.ID, inv.CompanyID,
	).Scan(&inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Invoice not found")
		}

		return fmt.Errorf("updating invoice: %w", err)
	}

	if replaceItems {
		if _, err := dbTx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("deleting invoice items: %w", err)
		}

		if err := insertItems(ctx, dbTx, inv); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, status invoice.Status) error {
	query := `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2 AND company_id = $3`

	res, err := s.db.ExecContext(ctx, query, string(status), id, companyID)
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}

	return expectOne(res)
}

func (s *Store) DeleteInvoice(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return apperr.NotFound("Invoice not found")
	}

	return nil
}
