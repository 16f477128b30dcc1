// Package export bundles a company's invoices for a period into a summary
// and a zip archive of their PDFs.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type InvoiceLister interface {
	List(ctx context.Context, companyID uuid.UUID, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

type CompanyLookup interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error)
}

type Renderer interface {
	Render(inv *invoice.Invoice, co *company.Company) ([]byte, error)
}

const summaryFilename = "summary.txt"

type Service struct {
	invoices  InvoiceLister
	companies CompanyLookup
	renderer  Renderer
}

func NewService(invoices InvoiceLister, companies CompanyLookup, renderer Renderer) *Service {
	return &Service{invoices: invoices, companies: companies, renderer: renderer}
}

// Summary is the exported view of a period.
type Summary struct {
	Invoices    []*invoice.Invoice
	Total       decimal.Decimal
	Outstanding decimal.Decimal
	Body        string
}

func (s *Service) Summary(ctx context.Context, companyID uuid.UUID, filter invoice.ListFilter) (*Summary, error) {
	invoices, err := s.invoices.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	sum := &Summary{Invoices: invoices, Total: decimal.Zero, Outstanding: decimal.Zero}

	for _, inv := range invoices {
		if inv.Status == invoice.StatusCancelled {
			continue
		}

		sum.Total = sum.Total.Add(inv.TotalAmount)

		if inv.Status == invoice.StatusSent || inv.Status == invoice.StatusOverdue {
			sum.Outstanding = sum.Outstanding.Add(inv.TotalAmount)
		}
	}

	sum.Body = GenerateSummary(sum)

	return sum, nil
}

// GenerateSummary renders one line per invoice followed by the totals.
func GenerateSummary(sum *Summary) string {
	var sb strings.Builder

	for _, inv := range sum.Invoices {
		fmt.Fprintf(&sb, "* %s | %s | %s | %s | %s\n",
			inv.IssueDate.Format("2006-01-02"),
			inv.Number,
			inv.Recipient().Name,
			invoice.FormatAmount(inv.TotalAmount),
			inv.Status,
		)
	}

	if len(sum.Invoices) == 0 {
		sb.WriteString("No invoices in this period.\n")
	}

	fmt.Fprintf(&sb, "\nInvoices: %d\nTotal invoiced: %s\nOutstanding: %s\n",
		len(sum.Invoices), invoice.FormatAmount(sum.Total), invoice.FormatAmount(sum.Outstanding))

	return sb.String()
}

// WriteArchive writes a zip holding every invoice's PDF and the summary.
func (s *Service) WriteArchive(ctx context.Context, companyID uuid.UUID, filter invoice.ListFilter, w io.Writer) error {
	sum, err := s.Summary(ctx, companyID, filter)
	if err != nil {
		return err
	}

	co, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	for _, inv := range sum.Invoices {
		if err := ctx.Err(); err != nil {
			return err
		}

		pdf, err := s.renderer.Render(inv, co)
		if err != nil {
			return fmt.Errorf("rendering invoice %s: %w", inv.Number, err)
		}

		if err := writeEntry(zw, invoice.PDFFilename(inv), pdf); err != nil {
			return err
		}
	}

	if err := writeEntry(zw, summaryFilename, []byte(sum.Body)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}
