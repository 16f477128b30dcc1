package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSent      Status = "Sent"
	StatusPaid      Status = "Paid"
	StatusOverdue   Status = "Overdue"
	StatusCancelled Status = "Cancelled"
)

var statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

func ParseStatus(s string) (Status, error) {
	for _, st := range statuses {
		if string(st) == s {
			return st, nil
		}
	}

	return "", apperr.Validation("Invalid status %q", s)
}

type Item struct {
	ID          uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// BillTo is who an invoice is addressed to.
type BillTo struct {
	Name    string
	Email   string
	Address string
}

type Invoice struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Number    string

	// ClientID is set when the invoice references a live client, whose
	// current details are loaded into Client. Otherwise the recipient is
	// the snapshot held in ClientName, ClientEmail and ClientAddress.
	ClientID      *uuid.UUID
	Client        *BillTo
	ClientName    string
	ClientEmail   string
	ClientAddress string

	IssueDate time.Time
	DueDate   time.Time

	SubTotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal

	Status              Status
	Notes               string
	PaymentTerms        string
	PaymentInstructions string
	Items               []Item

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recipient resolves the bill-to party: the referenced client when there is
// one, the stored snapshot otherwise.
func (inv *Invoice) Recipient() BillTo {
	if inv.ClientID != nil && inv.Client != nil {
		return *inv.Client
	}

	return BillTo{Name: inv.ClientName, Email: inv.ClientEmail, Address: inv.ClientAddress}
}

type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Status *Status
}

// Date truncates t to a calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
