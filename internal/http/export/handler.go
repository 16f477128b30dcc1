package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/export"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Routes must be mounted behind middleware.RequireCompany.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	From   string `json:"from"   validate:"omitempty,datetime=2006-01-02"`
	To     string `json:"to"     validate:"omitempty,datetime=2006-01-02"`
	Status string `json:"status"`
}

func (req exportRequest) filter() (invoice.ListFilter, error) {
	var filter invoice.ListFilter

	if req.From != "" {
		t, _ := time.Parse(time.DateOnly, req.From)
		filter.From = &t
	}

	if req.To != "" {
		t, _ := time.Parse(time.DateOnly, req.To)
		filter.To = &t
	}

	if req.Status != "" {
		status, err := invoice.ParseStatus(req.Status)
		if err != nil {
			return filter, err
		}

		filter.Status = &status
	}

	return filter, nil
}

func decodeFilter(r *http.Request) (invoice.ListFilter, error) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			return invoice.ListFilter{}, err
		}
	}

	return req.filter()
}

type invoiceResponse struct {
	ID            uuid.UUID      `json:"id"`
	InvoiceNumber string         `json:"invoiceNumber"`
	ClientName    string         `json:"clientName"`
	IssueDate     string         `json:"issueDate"`
	TotalAmount   string         `json:"totalAmount"`
	Status        invoice.Status `json:"status"`
}

type exportMetadataResponse struct {
	Invoices    []invoiceResponse `json:"invoices"`
	Total       string            `json:"total"`
	Outstanding string            `json:"outstanding"`
	Summary     string            `json:"summary"`
}

func toInvoiceResponse(inv *invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.Number,
		ClientName:    inv.Recipient().Name,
		IssueDate:     inv.IssueDate.Format(time.DateOnly),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		Status:        inv.Status,
	}
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sum, err := h.svc.Summary(r.Context(), middleware.CompanyID(r), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	invoices := make([]invoiceResponse, 0, len(sum.Invoices))
	for _, inv := range sum.Invoices {
		invoices = append(invoices, toInvoiceResponse(inv))
	}

	respond.JSON(w, http.StatusOK, exportMetadataResponse{
		Invoices:    invoices,
		Total:       sum.Total.StringFixed(2),
		Outstanding: sum.Outstanding.StringFixed(2),
		Summary:     sum.Body,
	})
}

// download builds the archive in memory so a failed render is still
// reported as an error response.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.WriteArchive(r.Context(), middleware.CompanyID(r), filter, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"export_%s.zip\"", h.now().Format("20060102")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
