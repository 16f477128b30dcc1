package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	invmail "github.com/MrJamesThe3rd/invoicer/internal/mail"
	"github.com/MrJamesThe3rd/invoicer/internal/metrics"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	// BeginCreate opens a transaction that serialises invoice creation for
	// the company until it commits or rolls back.
	BeginCreate(ctx context.Context, companyID uuid.UUID) (CreateTx, error)
	LatestNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error)
	GetInvoice(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]*Invoice, error)
	// UpdateInvoice saves the header fields and totals. Items are rewritten
	// only when replaceItems is true.
	UpdateInvoice(ctx context.Context, inv *Invoice, replaceItems bool) error
	UpdateStatus(ctx context.Context, companyID, id uuid.UUID, status Status) error
	DeleteInvoice(ctx context.Context, companyID, id uuid.UUID) error
}

type CreateTx interface {
	// LatestNumber returns the highest number issued under prefix, or ""
	// when there is none.
	LatestNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error)
	CreateInvoice(ctx context.Context, inv *Invoice) error
	Commit() error
	Rollback() error
}

type ClientLookup interface {
	GetClient(ctx context.Context, companyID, id uuid.UUID) (*client.Client, error)
}

type CompanyLookup interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error)
}

type Renderer interface {
	Render(inv *Invoice, co *company.Company) ([]byte, error)
}

type Notifier interface {
	Send(ctx context.Context, msg invmail.Message) error
}

type Service struct {
	repo      Repository
	clients   ClientLookup
	companies CompanyLookup
	renderer  Renderer
	notifier  Notifier
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for the issue date check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo Repository,
	clients ClientLookup,
	companies CompanyLookup,
	renderer Renderer,
	notifier Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		clients:   clients,
		companies: companies,
		renderer:  renderer,
		notifier:  notifier,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type ItemParams struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateParams struct {
	ClientID            *uuid.UUID
	ClientName          string
	ClientEmail         string
	ClientAddress       string
	IssueDate           time.Time
	DueDate             time.Time
	TaxRate             decimal.Decimal
	Notes               string
	PaymentTerms        string
	PaymentInstructions string
	Items               []ItemParams
}

type UpdateParams struct {
	ClientID            patch.Field[uuid.UUID]
	ClientName          patch.Field[string]
	ClientEmail         patch.Field[string]
	ClientAddress       patch.Field[string]
	IssueDate           patch.Field[time.Time]
	DueDate             patch.Field[time.Time]
	TaxRate             patch.Field[decimal.Decimal]
	Status              patch.Field[string]
	Notes               patch.Field[string]
	PaymentTerms        patch.Field[string]
	PaymentInstructions patch.Field[string]
	Items               patch.Field[[]ItemParams]
}

const errClientExclusive = "Provide either a client or a client name and email, not both"

// Text field limits, in characters.
const (
	maxClientName          = 200
	maxClientAddress       = 1000
	maxDescription         = 500
	maxNotes               = 2000
	maxPaymentTerms        = 500
	maxPaymentInstructions = 2000
)

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// GenerateInvoiceNumber previews the number the next created invoice would
// get. Create allocates the real number under a lock.
func (s *Service) GenerateInvoiceNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	co, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return "", err
	}

	latest, err := s.repo.LatestNumber(ctx, companyID, co.Prefix())
	if err != nil {
		return "", err
	}

	return NextNumber(co.Prefix(), latest), nil
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, p CreateParams) (*Invoice, error) {
	items, err := buildItems(p.Items)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		CompanyID:           companyID,
		IssueDate:           Date(p.IssueDate),
		DueDate:             Date(p.DueDate),
		TaxRate:             p.TaxRate,
		Status:              StatusDraft,
		Notes:               strings.TrimSpace(p.Notes),
		PaymentTerms:        strings.TrimSpace(p.PaymentTerms),
		PaymentInstructions: strings.TrimSpace(p.PaymentInstructions),
		Items:               items,
	}

	if err := s.validate(inv, true); err != nil {
		return nil, err
	}

	snapshotGiven := strings.TrimSpace(p.ClientName) != "" || strings.TrimSpace(p.ClientEmail) != ""

	switch {
	case p.ClientID != nil && snapshotGiven:
		return nil, apperr.Validation(errClientExclusive)
	case p.ClientID != nil:
		if err := s.attachClient(ctx, companyID, inv, *p.ClientID); err != nil {
			return nil, err
		}
	default:
		inv.ClientName = p.ClientName
		inv.ClientEmail = p.ClientEmail
		inv.ClientAddress = p.ClientAddress

		if err := normalizeSnapshot(inv); err != nil {
			return nil, err
		}
	}

	inv.Recalculate()

	co, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginCreate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	latest, err := tx.LatestNumber(ctx, companyID, co.Prefix())
	if err != nil {
		return nil, err
	}

	inv.Number = NextNumber(co.Prefix(), latest)

	if err := tx.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing invoice: %w", err)
	}

	metrics.InvoicesCreatedTotal.Inc()
	slog.Info("invoice created", "company_id", companyID, "invoice_id", inv.ID, "number", inv.Number)

	return inv, nil
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, p UpdateParams) (*Invoice, error) {
	switch {
	case p.IssueDate.IsCleared():
		return nil, apperr.Validation("Issue date cannot be cleared")
	case p.DueDate.IsCleared():
		return nil, apperr.Validation("Due date cannot be cleared")
	case p.TaxRate.IsCleared():
		return nil, apperr.Validation("Tax rate cannot be cleared")
	case p.Status.IsCleared():
		return nil, apperr.Validation("Status cannot be cleared")
	case p.Items.IsCleared():
		return nil, apperr.Validation("At least one item is required")
	}

	inv, err := s.repo.GetInvoice(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyRecipient(ctx, companyID, inv, p); err != nil {
		return nil, err
	}

	if p.IssueDate.IsSet() {
		inv.IssueDate = Date(p.IssueDate.Value())
	}

	if p.DueDate.IsSet() {
		inv.DueDate = Date(p.DueDate.Value())
	}

	p.TaxRate.Apply(&inv.TaxRate)

	if p.Status.IsSet() {
		st, err := ParseStatus(p.Status.Value())
		if err != nil {
			return nil, err
		}

		inv.Status = st
	}

	p.Notes.Apply(&inv.Notes)
	p.PaymentTerms.Apply(&inv.PaymentTerms)
	p.PaymentInstructions.Apply(&inv.PaymentInstructions)

	replaceItems := p.Items.IsSet()
	if replaceItems {
		items, err := buildItems(p.Items.Value())
		if err != nil {
			return nil, err
		}

		inv.Items = items
	}

	if err := s.validate(inv, p.IssueDate.IsSet()); err != nil {
		return nil, err
	}

	inv.Recalculate()

	if err := s.repo.UpdateInvoice(ctx, inv, replaceItems); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.DeleteInvoice(ctx, companyID, id)
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, companyID, id)
}

// List returns the company's invoices, newest first.
func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]*Invoice, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperr.Validation("Invalid date range")
	}

	return s.repo.ListInvoices(ctx, companyID, filter)
}

// Send emails the rendered invoice to its recipient from the company's
// address and marks it Sent. The status is left alone when delivery fails.
func (s *Service) Send(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	co, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(co.Email) == "" {
		return nil, apperr.Precondition("Company email not found")
	}

	to := inv.Recipient()
	if to.Email == "" {
		return nil, apperr.Precondition("Invoice has no recipient email")
	}

	pdf, err := s.renderer.Render(inv, co)
	if err != nil {
		return nil, fmt.Errorf("rendering invoice %s: %w", inv.Number, err)
	}

	msg := invmail.Message{
		From:    co.Email,
		To:      to.Email,
		Subject: fmt.Sprintf("Invoice %s from %s", inv.Number, co.Name),
		TextBody: fmt.Sprintf(
			"Please find attached invoice %s.\n\nAmount Due: %s\nDue Date: %s\n\nThank you for your business.",
			inv.Number, FormatAmount(inv.TotalAmount), FormatDate(inv.DueDate),
		),
		Attachments: []invmail.Attachment{{
			Filename:    PDFFilename(inv),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		metrics.InvoicesSentTotal.WithLabelValues("failed").Inc()
		slog.Warn("invoice delivery failed", "invoice_id", inv.ID, "error", err)

		return nil, fmt.Errorf("sending invoice %s: %w", inv.Number, err)
	}

	if err := s.repo.UpdateStatus(ctx, companyID, id, StatusSent); err != nil {
		return nil, err
	}

	inv.Status = StatusSent
	metrics.InvoicesSentTotal.WithLabelValues("sent").Inc()
	slog.Info("invoice sent", "invoice_id", inv.ID, "number", inv.Number)

	return inv, nil
}

// GeneratePDF renders the invoice as a PDF document.
func (s *Service) GeneratePDF(ctx context.Context, companyID, id uuid.UUID) (*Invoice, []byte, error) {
	inv, err := s.repo.GetInvoice(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}

	co, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := s.renderer.Render(inv, co)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering invoice %s: %w", inv.Number, err)
	}

	return inv, pdf, nil
}

func PDFFilename(inv *Invoice) string {
	return "invoice-" + inv.Number + ".pdf"
}

// attachClient points inv at a live client of the same company and drops
// any snapshot.
func (s *Service) attachClient(ctx context.Context, companyID uuid.UUID, inv *Invoice, clientID uuid.UUID) error {
	c, err := s.clients.GetClient(ctx, companyID, clientID)
	if err != nil {
		return err
	}

	inv.ClientID = &c.ID
	inv.Client = &BillTo{Name: c.Name, Email: c.Email, Address: c.Address()}
	inv.ClientName, inv.ClientEmail, inv.ClientAddress = "", "", ""

	return nil
}

// applyRecipient moves the invoice between reference and snapshot mode.
// Touching any snapshot field of a referencing invoice detaches it, seeding
// the snapshot from the client it pointed at.
func (s *Service) applyRecipient(ctx context.Context, companyID uuid.UUID, inv *Invoice, p UpdateParams) error {
	snapshotTouched := !p.ClientName.IsUnchanged() || !p.ClientEmail.IsUnchanged() || !p.ClientAddress.IsUnchanged()

	if p.ClientID.IsSet() {
		if snapshotTouched {
			return apperr.Validation(errClientExclusive)
		}

		return s.attachClient(ctx, companyID, inv, p.ClientID.Value())
	}

	if inv.ClientID != nil && (p.ClientID.IsCleared() || snapshotTouched) {
		r := inv.Recipient()
		inv.ClientName, inv.ClientEmail, inv.ClientAddress = r.Name, r.Email, r.Address
		inv.ClientID = nil
		inv.Client = nil
	}

	if inv.ClientID != nil {
		return nil
	}

	p.ClientName.Apply(&inv.ClientName)
	p.ClientEmail.Apply(&inv.ClientEmail)
	p.ClientAddress.Apply(&inv.ClientAddress)

	return normalizeSnapshot(inv)
}

func normalizeSnapshot(inv *Invoice) error {
	inv.ClientName = strings.TrimSpace(inv.ClientName)
	inv.ClientEmail = strings.ToLower(strings.TrimSpace(inv.ClientEmail))
	inv.ClientAddress = strings.TrimSpace(inv.ClientAddress)

	switch {
	case inv.ClientName == "":
		return apperr.Validation("Client name is required")
	case tooLong(inv.ClientName, maxClientName):
		return apperr.Validation("Client name must be at most %d characters", maxClientName)
	case tooLong(inv.ClientAddress, maxClientAddress):
		return apperr.Validation("Client address must be at most %d characters", maxClientAddress)
	case inv.ClientEmail == "":
		return apperr.Validation("Client email is required")
	}

	addr, err := mail.ParseAddress(inv.ClientEmail)
	if err != nil {
		return apperr.Validation("Invalid client email")
	}

	inv.ClientEmail = addr.Address

	return nil
}

func buildItems(params []ItemParams) ([]Item, error) {
	if len(params) == 0 {
		return nil, apperr.Validation("At least one item is required")
	}

	items := make([]Item, 0, len(params))

	for i, p := range params {
		desc := strings.TrimSpace(p.Description)

		switch {
		case desc == "":
			return nil, apperr.Validation("Item %d: description is required", i+1)
		case tooLong(desc, maxDescription):
			return nil, apperr.Validation("Item %d: description must be at most %d characters", i+1, maxDescription)
		case !p.Quantity.IsPositive():
			return nil, apperr.Validation("Item %d: quantity must be greater than zero", i+1)
		case p.UnitPrice.IsNegative():
			return nil, apperr.Validation("Item %d: unit price cannot be negative", i+1)
		}

		items = append(items, Item{Description: desc, Quantity: p.Quantity, UnitPrice: p.UnitPrice})
	}

	return items, nil
}

var maxTaxRate = decimal.NewFromInt(100)

// validate checks the invariants shared by create and update. The issue date
// is only compared with today when it is being written.
func (s *Service) validate(inv *Invoice, checkIssueDate bool) error {
	switch {
	case inv.IssueDate.IsZero():
		return apperr.Validation("Issue date is required")
	case inv.DueDate.IsZero():
		return apperr.Validation("Due date is required")
	case checkIssueDate && inv.IssueDate.After(Date(s.now())):
		return apperr.Validation("Issue date cannot be in the future")
	case inv.DueDate.Before(inv.IssueDate):
		return apperr.Validation("Due date must be on or after the issue date")
	case inv.TaxRate.IsNegative() || inv.TaxRate.GreaterThan(maxTaxRate):
		return apperr.Validation("Tax rate must be between 0 and 100")
	case tooLong(inv.Notes, maxNotes):
		return apperr.Validation("Notes must be at most %d characters", maxNotes)
	case tooLong(inv.PaymentTerms, maxPaymentTerms):
		return apperr.Validation("Payment terms must be at most %d characters", maxPaymentTerms)
	case tooLong(inv.PaymentInstructions, maxPaymentInstructions):
		return apperr.Validation("Payment instructions must be at most %d characters", maxPaymentInstructions)
	}

	return nil
}
