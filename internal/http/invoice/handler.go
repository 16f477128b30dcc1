package invoice

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

type Handler struct {
	svc *invoice.Service
}

func NewHandler(svc *invoice.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes must be mounted behind middleware.RequireCompany.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/next-number", h.nextNumber)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/send", h.send)
	r.Get("/{id}/download", h.download)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid invoice id")
	}

	return id, nil
}

type itemRequest struct {
	Description string          `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func toItemParams(items []itemRequest) []invoice.ItemParams {
	out := make([]invoice.ItemParams, len(items))
	for i, it := range items {
		out[i] = invoice.ItemParams(it)
	}

	return out
}

type createRequest struct {
	ClientID            *uuid.UUID      `json:"clientId"`
	ClientName          string          `json:"clientName"          validate:"max=200"`
	ClientEmail         string          `json:"clientEmail"`
	ClientAddress       string          `json:"clientAddress"       validate:"max=1000"`
	IssueDate           date            `json:"issueDate"`
	DueDate             date            `json:"dueDate"`
	TaxRate             decimal.Decimal `json:"taxRate"`
	Notes               string          `json:"notes"               validate:"max=2000"`
	PaymentTerms        string          `json:"paymentTerms"        validate:"max=500"`
	PaymentInstructions string          `json:"paymentInstructions" validate:"max=2000"`
	Items               []itemRequest   `json:"items"               validate:"dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.svc.Create(r.Context(), middleware.CompanyID(r), invoice.CreateParams{
		ClientID:            req.ClientID,
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		ClientAddress:       req.ClientAddress,
		IssueDate:           req.IssueDate.Time(),
		DueDate:             req.DueDate.Time(),
		TaxRate:             req.TaxRate,
		Notes:               req.Notes,
		PaymentTerms:        req.PaymentTerms,
		PaymentInstructions: req.PaymentInstructions,
		Items:               toItemParams(req.Items),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/invoices/"+inv.ID.String())
	respond.JSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	invs, err := h.svc.List(r.Context(), middleware.CompanyID(r), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(invs))
}

// parseFilter reads the optional status, from and to query parameters.
func parseFilter(r *http.Request) (invoice.ListFilter, error) {
	var filter invoice.ListFilter

	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := invoice.ParseStatus(s)
		if err != nil {
			return filter, err
		}

		filter.Status = &status
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		s := q.Get(name)
		if s == "" {
			continue
		}

		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, apperr.Validation("Invalid %s date %s, expected YYYY-MM-DD", name, strconv.Quote(s))
		}

		*dst = &t
	}

	return filter, nil
}

func (h *Handler) nextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.svc.GenerateInvoiceNumber(r.Context(), middleware.CompanyID(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"invoiceNumber": number})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.svc.Get(r.Context(), middleware.CompanyID(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(inv))
}

type updateRequest struct {
	ClientID            patch.Field[uuid.UUID]       `json:"clientId"`
	ClientName          patch.Field[string]          `json:"clientName"`
	ClientEmail         patch.Field[string]          `json:"clientEmail"`
	ClientAddress       patch.Field[string]          `json:"clientAddress"`
	IssueDate           patch.Field[date]            `json:"issueDate"`
	DueDate             patch.Field[date]            `json:"dueDate"`
	TaxRate             patch.Field[decimal.Decimal] `json:"taxRate"`
	Status              patch.Field[string]          `json:"status"`
	Notes               patch.Field[string]          `json:"notes"`
	PaymentTerms        patch.Field[string]          `json:"paymentTerms"`
	PaymentInstructions patch.Field[string]          `json:"paymentInstructions"`
	Items               patch.Field[[]itemRequest]   `json:"items"`
}

func (req updateRequest) params() invoice.UpdateParams {
	return invoice.UpdateParams{
		ClientID:            req.ClientID,
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		ClientAddress:       req.ClientAddress,
		IssueDate:           convert(req.IssueDate, date.Time),
		DueDate:             convert(req.DueDate, date.Time),
		TaxRate:             req.TaxRate,
		Status:              req.Status,
		Notes:               req.Notes,
		PaymentTerms:        req.PaymentTerms,
		PaymentInstructions: req.PaymentInstructions,
		Items:               convert(req.Items, toItemParams),
	}
}

// convert maps a field's value while keeping its state.
func convert[T, U any](f patch.Field[T], fn func(T) U) patch.Field[U] {
	switch {
	case f.IsSet():
		return patch.Set(fn(f.Value()))
	case f.IsCleared():
		return patch.Clear[U]()
	default:
		return patch.Field[U]{}
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.svc.Update(r.Context(), middleware.CompanyID(r), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.CompanyID(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.svc.Send(r.Context(), middleware.CompanyID(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, pdf, err := h.svc.GeneratePDF(r.Context(), middleware.CompanyID(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+invoice.PDFFilename(inv)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
