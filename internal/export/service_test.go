package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type fakeInvoices struct {
	list       []*invoice.Invoice
	err        error
	lastFilter invoice.ListFilter
}

func (f *fakeInvoices) List(_ context.Context, _ uuid.UUID, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	f.lastFilter = filter
	return f.list, f.err
}

type fakeCompanies struct{}

func (fakeCompanies) GetCompany(_ context.Context, id uuid.UUID) (*company.Company, error) {
	return &company.Company{ID: id, Details: company.Details{Name: "Finch"}}, nil
}

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) Render(inv *invoice.Invoice, _ *company.Company) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	return []byte("pdf:" + inv.Number), nil
}

func sampleInvoices() []*invoice.Invoice {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	return []*invoice.Invoice{
		{Number: "INV00003", ClientName: "Acme", IssueDate: date, TotalAmount: decimal.RequireFromString("1250.5"), Status: invoice.StatusSent},
		{Number: "INV00002", ClientName: "Bolt", IssueDate: date, TotalAmount: decimal.NewFromInt(100), Status: invoice.StatusPaid},
		{Number: "INV00001", ClientName: "Void", IssueDate: date, TotalAmount: decimal.NewFromInt(999), Status: invoice.StatusCancelled},
	}
}

func TestService_Summary(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeInvoices{list: sampleInvoices()}
	s := NewService(src, fakeCompanies{}, fakeRenderer{})

	sum, err := s.Summary(context.Background(), uuid.New(), invoice.ListFilter{From: &from})
	require.NoError(t, err)

	assert.Equal(t, &from, src.lastFilter.From)
	assert.True(t, decimal.RequireFromString("1350.5").Equal(sum.Total))
	assert.True(t, decimal.RequireFromString("1250.5").Equal(sum.Outstanding))

	for _, sub := range []string{
		"* 2026-03-02 | INV00003 | Acme | 1,250.50 | Sent",
		"* 2026-03-02 | INV00002 | Bolt | 100.00 | Paid",
		"Invoices: 3",
		"Total invoiced: 1,350.50",
		"Outstanding: 1,250.50",
	} {
		assert.Contains(t, sum.Body, sub)
	}
}

func TestGenerateSummary_Empty(t *testing.T) {
	body := GenerateSummary(&Summary{})
	assert.True(t, strings.HasPrefix(body, "No invoices in this period."))
}

func TestService_WriteArchive(t *testing.T) {
	s := NewService(&fakeInvoices{list: sampleInvoices()}, fakeCompanies{}, fakeRenderer{})

	var buf bytes.Buffer
	require.NoError(t, s.WriteArchive(context.Background(), uuid.New(), invoice.ListFilter{}, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string]string{}

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()

		files[f.Name] = string(data)
	}

	assert.Len(t, files, 4)
	assert.Equal(t, "pdf:INV00003", files["invoice-INV00003.pdf"])
	assert.Contains(t, files["summary.txt"], "INV00001")
}

func TestService_WriteArchive_RenderError(t *testing.T) {
	renderErr := errors.New("boom")
	s := NewService(&fakeInvoices{list: sampleInvoices()}, fakeCompanies{}, fakeRenderer{err: renderErr})

	err := s.WriteArchive(context.Background(), uuid.New(), invoice.ListFilter{}, io.Discard)
	assert.ErrorIs(t, err, renderErr)
}
