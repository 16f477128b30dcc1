package client

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/metrics"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=client
type Repository interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, companyID, id uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, companyID uuid.UUID) ([]*Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	// DeleteClient removes the client and freezes its contact details into
	// every invoice that referenced it.
	DeleteClient(ctx context.Context, companyID, id uuid.UUID) error

	BeginImport(ctx context.Context, companyID uuid.UUID) (ImportTx, error)
}

type ImportTx interface {
	FindByEmails(ctx context.Context, companyID uuid.UUID, emails []string) ([]*Client, error)
	CreateClients(ctx context.Context, clients []*Client) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type UpdateParams struct {
	Name         patch.Field[string]
	Email        patch.Field[string]
	Phone        patch.Field[string]
	AddressLine1 patch.Field[string]
	AddressLine2 patch.Field[string]
	City         patch.Field[string]
	State        patch.Field[string]
	PostalCode   patch.Field[string]
	Country      patch.Field[string]
	TaxNumber    patch.Field[string]
	Notes        patch.Field[string]
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, details Details) (*Client, error) {
	details, err := normalize(details)
	if err != nil {
		return nil, err
	}

	c := &Client{CompanyID: companyID, Details: details}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Client, error) {
	return s.repo.GetClient(ctx, companyID, id)
}

// List returns the company's clients ordered by name.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Client, error) {
	return s.repo.ListClients(ctx, companyID)
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Client, error) {
	c, err := s.repo.GetClient(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	d := c.Details
	params.Name.Apply(&d.Name)
	params.Email.Apply(&d.Email)
	params.Phone.Apply(&d.Phone)
	params.AddressLine1.Apply(&d.AddressLine1)
	params.AddressLine2.Apply(&d.AddressLine2)
	params.City.Apply(&d.City)
	params.State.Apply(&d.State)
	params.PostalCode.Apply(&d.PostalCode)
	params.Country.Apply(&d.Country)
	params.TaxNumber.Apply(&d.TaxNumber)
	params.Notes.Apply(&d.Notes)

	if c.Details, err = normalize(d); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.DeleteClient(ctx, companyID, id)
}

func normalize(d Details) (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))

	if d.Name == "" {
		return d, apperr.Validation("Client name is required")
	}

	if d.Email == "" {
		return d, apperr.Validation("Client email is required")
	}

	addr, err := mail.ParseAddress(d.Email)
	if err != nil {
		return d, apperr.Validation("A valid email address is required")
	}

	d.Email = addr.Address

	return d, nil
}

// ImportRow is one parsed line of a client import.
type ImportRow struct {
	Line int
	Details
}

type ImportResult struct {
	Imported   []*Client
	Duplicates []Duplicate
	Rejected   []Rejected
}

// Duplicate is an incoming row whose email already belongs to a client of
// the company, or to an earlier row of the same import.
type Duplicate struct {
	Line     int
	Incoming Details
	Existing *Client
}

type Rejected struct {
	Line   int
	Reason string
}

// ImportBatch creates every valid, previously unknown client in one
// transaction. Invalid rows and duplicates are reported, not created.
func (s *Service) ImportBatch(ctx context.Context, companyID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	result := &ImportResult{}

	valid := make([]ImportRow, 0, len(rows))

	for _, row := range rows {
		d, err := normalize(row.Details)
		if err != nil {
			result.Rejected = append(result.Rejected, Rejected{Line: row.Line, Reason: apperr.Message(err)})
			continue
		}

		row.Details = d
		valid = append(valid, row)
	}

	if len(valid) == 0 {
		return result, nil
	}

	itx, err := s.repo.BeginImport(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	emails := make([]string, len(valid))
	for i, row := range valid {
		emails[i] = row.Email
	}

	existing, err := itx.FindByEmails(ctx, companyID, emails)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[string]*Client, len(existing))
	for _, c := range existing {
		lookup[strings.ToLower(c.Email)] = c
	}

	var create []*Client

	seen := make(map[string]bool, len(valid))

	for _, row := range valid {
		if c, found := lookup[row.Email]; found || seen[row.Email] {
			result.Duplicates = append(result.Duplicates, Duplicate{Line: row.Line, Incoming: row.Details, Existing: c})
			continue
		}

		seen[row.Email] = true
		create = append(create, &Client{CompanyID: companyID, Details: row.Details})
	}

	if len(create) > 0 {
		if err := itx.CreateClients(ctx, create); err != nil {
			return nil, fmt.Errorf("create clients: %w", err)
		}
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	metrics.ClientsImportedTotal.Add(float64(len(create)))

	result.Imported = create

	return result, nil
}
