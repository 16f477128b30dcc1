package company

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultInvoicePrefix = "INV"

// Company is the billing identity a user invoices under. A user owns at
// most one.
type Company struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Details
	LogoKey   string
	LogoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Details holds the user-editable fields of a company.
type Details struct {
	Name                string
	Email               string
	Phone               string
	Website             string
	AddressLine1        string
	AddressLine2        string
	City                string
	State               string
	PostalCode          string
	Country             string
	TaxNumber           string
	RegistrationNumber  string
	InvoicePrefix       string
	InvoiceNotes        string
	PaymentInstructions string
}

// Prefix is the invoice number prefix, falling back to DefaultInvoicePrefix.
func (c *Company) Prefix() string {
	if p := strings.TrimSpace(c.InvoicePrefix); p != "" {
		return p
	}

	return DefaultInvoicePrefix
}

// AddressLines returns the non-empty postal address lines in print order.
func (d Details) AddressLines() []string {
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(d.City, d.State, d.PostalCode), " "))

	return nonEmpty(d.AddressLine1, d.AddressLine2, cityLine, d.Country)
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
