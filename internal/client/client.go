package client

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a billable contact owned by a company.
type Client struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Details
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Details struct {
	Name         string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	TaxNumber    string
	Notes        string
}

// Address renders the postal address as newline-separated lines, the form
// invoices keep as their recipient snapshot.
func (d Details) Address() string {
	cityLine := strings.Join(nonEmpty(d.City, d.State, d.PostalCode), " ")
	return strings.Join(nonEmpty(d.AddressLine1, d.AddressLine2, cityLine, d.Country), "\n")
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
