package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type itemResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unitPrice"`
	Amount      string    `json:"amount"`
}

type clientResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

type invoiceResponse struct {
	ID                  uuid.UUID      `json:"id"`
	InvoiceNumber       string         `json:"invoiceNumber"`
	ClientID            *uuid.UUID     `json:"clientId,omitempty"`
	Client              clientResponse `json:"client"`
	IssueDate           date           `json:"issueDate"`
	DueDate             date           `json:"dueDate"`
	SubTotal            string         `json:"subTotal"`
	TaxRate             string         `json:"taxRate"`
	TaxAmount           string         `json:"taxAmount"`
	TotalAmount         string         `json:"totalAmount"`
	Status              invoice.Status `json:"status"`
	Notes               string         `json:"notes,omitempty"`
	PaymentTerms        string         `json:"paymentTerms,omitempty"`
	PaymentInstructions string         `json:"paymentInstructions,omitempty"`
	Items               []itemResponse `json:"items"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	to := inv.Recipient()

	resp := invoiceResponse{
		ID:                  inv.ID,
		InvoiceNumber:       inv.Number,
		ClientID:            inv.ClientID,
		Client:              clientResponse{Name: to.Name, Email: to.Email, Address: to.Address},
		IssueDate:           date(inv.IssueDate),
		DueDate:             date(inv.DueDate),
		SubTotal:            money(inv.SubTotal),
		TaxRate:             inv.TaxRate.String(),
		TaxAmount:           money(inv.TaxAmount),
		TotalAmount:         money(inv.TotalAmount),
		Status:              inv.Status,
		Notes:               inv.Notes,
		PaymentTerms:        inv.PaymentTerms,
		PaymentInstructions: inv.PaymentInstructions,
		Items:               make([]itemResponse, len(inv.Items)),
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
	}

	for i, it := range inv.Items {
		resp.Items[i] = itemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   money(it.UnitPrice),
			Amount:      money(it.Amount),
		}
	}

	return resp
}

func toResponseList(invs []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, len(invs))
	for i, inv := range invs {
		resp[i] = toResponse(inv)
	}

	return resp
}
