// Package document renders invoices as A4 PDF documents.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/metrics"
)

const (
	pageWidth  = 210.0
	margin     = 15.0
	lineHeight = 5.0
)

// Column widths of the items table. They add up to the printable width.
var columns = [4]float64{100, 20, 30, 30}

type Renderer struct {
	compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{compress: true}
}

func (r *Renderer) Render(inv *invoice.Invoice, co *company.Company) ([]byte, error) {
	timer := prometheus.NewTimer(metrics.PDFRenderDuration)
	defer timer.ObserveDuration()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetAuthor(co.Name, true)
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	p.header(inv, co)
	p.billTo(inv.Recipient())
	p.items(inv.Items)
	p.totals(inv)
	p.footer(inv, co)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("building pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	return buf.Bytes(), nil
}

type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (p *page) text(w float64, s, align string) {
	p.pdf.CellFormat(w, lineHeight, p.tr(s), "", 0, align, false, 0, "")
}

func (p *page) line(s string) {
	p.pdf.CellFormat(0, lineHeight, p.tr(s), "", 1, "L", false, 0, "")
}

func (p *page) header(inv *invoice.Invoice, co *company.Company) {
	top := p.pdf.GetY()

	p.pdf.SetFont("Helvetica", "B", 16)
	p.pdf.CellFormat(110, 8, p.tr(co.Name), "", 1, "L", false, 0, "")

	p.pdf.SetFont("Helvetica", "", 9)
	for _, l := range co.AddressLines() {
		p.line(l)
	}

	for _, l := range nonEmpty(co.Email, co.Phone, co.Website) {
		p.line(l)
	}

	if co.TaxNumber != "" {
		p.line("Tax No: " + co.TaxNumber)
	}

	if co.RegistrationNumber != "" {
		p.line("Reg. No: " + co.RegistrationNumber)
	}

	left := p.pdf.GetY()

	x := pageWidth - margin - 70
	p.pdf.SetXY(x, top)
	p.pdf.SetFont("Helvetica", "B", 20)
	p.pdf.CellFormat(70, 10, "INVOICE", "", 2, "R", false, 0, "")

	p.pdf.SetFont("Helvetica", "", 10)
	for _, kv := range [][2]string{
		{"Number", inv.Number},
		{"Issue date", invoice.FormatDate(inv.IssueDate)},
		{"Due date", invoice.FormatDate(inv.DueDate)},
		{"Status", string(inv.Status)},
	} {
		p.pdf.SetX(x)
		p.pdf.CellFormat(70, lineHeight, p.tr(kv[0]+": "+kv[1]), "", 2, "R", false, 0, "")
	}

	p.pdf.SetXY(margin, max(left, p.pdf.GetY())+8)
}

func (p *page) billTo(to invoice.BillTo) {
	p.pdf.SetFont("Helvetica", "B", 10)
	p.line("Bill To")

	p.pdf.SetFont("Helvetica", "", 10)
	p.line(to.Name)

	if to.Email != "" {
		p.line(to.Email)
	}

	for _, l := range strings.Split(to.Address, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			p.line(l)
		}
	}

	p.pdf.Ln(6)
}

func (p *page) items(items []invoice.Item) {
	p.pdf.SetFont("Helvetica", "B", 10)
	p.pdf.SetFillColor(235, 235, 235)

	for i, h := range []string{"Description", "Qty", "Unit Price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}

		p.pdf.CellFormat(columns[i], 7, h, "B", 0, align, true, 0, "")
	}

	p.pdf.Ln(-1)
	p.pdf.SetFont("Helvetica", "", 10)

	for _, it := range items {
		lines := p.pdf.SplitLines([]byte(p.tr(it.Description)), columns[0])
		h := float64(max(len(lines), 1)) * lineHeight
		y := p.pdf.GetY()

		p.pdf.MultiCell(columns[0], lineHeight, p.tr(it.Description), "", "L", false)
		p.pdf.SetXY(margin+columns[0], y)
		p.pdf.CellFormat(columns[1], lineHeight, it.Quantity.String(), "", 0, "R", false, 0, "")
		p.pdf.CellFormat(columns[2], lineHeight, invoice.FormatAmount(it.UnitPrice), "", 0, "R", false, 0, "")
		p.pdf.CellFormat(columns[3], lineHeight, invoice.FormatAmount(it.Amount), "", 0, "R", false, 0, "")
		p.pdf.SetXY(margin, y+h+1)
	}

	p.pdf.Ln(3)
}

func (p *page) totals(inv *invoice.Invoice) {
	labelW := columns[0] + columns[1] + columns[2]

	rows := [][2]string{
		{"Subtotal", invoice.FormatAmount(inv.SubTotal)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.String()), invoice.FormatAmount(inv.TaxAmount)},
	}

	p.pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		p.text(labelW, r[0], "R")
		p.text(columns[3], r[1], "R")
		p.pdf.Ln(-1)
	}

	p.pdf.SetFont("Helvetica", "B", 11)
	p.pdf.CellFormat(labelW, 7, "Total", "T", 0, "R", false, 0, "")
	p.pdf.CellFormat(columns[3], 7, invoice.FormatAmount(inv.TotalAmount), "T", 1, "R", false, 0, "")
	p.pdf.Ln(6)
}

// footer prints the invoice's own terms and notes, falling back to the
// company defaults.
func (p *page) footer(inv *invoice.Invoice, co *company.Company) {
	sections := [][2]string{
		{"Payment Terms", inv.PaymentTerms},
		{"Payment Instructions", firstNonEmpty(inv.PaymentInstructions, co.PaymentInstructions)},
		{"Notes", firstNonEmpty(inv.Notes, co.InvoiceNotes)},
	}

	for _, s := range sections {
		if strings.TrimSpace(s[1]) == "" {
			continue
		}

		p.pdf.SetFont("Helvetica", "B", 10)
		p.line(s[0])
		p.pdf.SetFont("Helvetica", "", 9)
		p.pdf.MultiCell(0, lineHeight, p.tr(s[1]), "", "L", false)
		p.pdf.Ln(3)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

func nonEmpty(values ...string) []string {
	var out []string

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}
