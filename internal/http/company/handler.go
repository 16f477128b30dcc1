package company

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

// maxUploadSize leaves room for the multipart envelope around a logo.
const maxUploadSize = 6 << 20

type Handler struct {
	svc *company.Service
}

func NewHandler(svc *company.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes must be mounted behind middleware.RequireAuth. The company is
// always the caller's own.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Post("/", h.create)
	r.Put("/", h.replace)
	r.Patch("/", h.update)
	r.Post("/logo", h.uploadLogo)
	r.Delete("/logo", h.removeLogo)
}

type detailsDTO struct {
	Name                string `json:"name"                validate:"required,max=200"`
	Email               string `json:"email"               validate:"omitempty,email"`
	Phone               string `json:"phone"`
	Website             string `json:"website"`
	AddressLine1        string `json:"addressLine1"`
	AddressLine2        string `json:"addressLine2"`
	City                string `json:"city"`
	State               string `json:"state"`
	PostalCode          string `json:"postalCode"`
	Country             string `json:"country"`
	TaxNumber           string `json:"taxNumber"`
	RegistrationNumber  string `json:"registrationNumber"`
	InvoicePrefix       string `json:"invoicePrefix"       validate:"max=20"`
	InvoiceNotes        string `json:"invoiceNotes"`
	PaymentInstructions string `json:"paymentInstructions"`
}

type companyResponse struct {
	ID uuid.UUID `json:"id"`
	detailsDTO
	LogoURL   string    `json:"logoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(c *company.Company) companyResponse {
	return companyResponse{
		ID:         c.ID,
		detailsDTO: detailsDTO(c.Details),
		LogoURL:    c.LogoURL,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func userID(r *http.Request) uuid.UUID {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p.UserID
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetByUser(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.NotFound("Company not found")
		}

		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req detailsDTO
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), userID(r), company.Details(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var req detailsDTO
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Replace(r.Context(), userID(r), company.Details(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

type updateRequest struct {
	Name                patch.Field[string] `json:"name"`
	Email               patch.Field[string] `json:"email"`
	Phone               patch.Field[string] `json:"phone"`
	Website             patch.Field[string] `json:"website"`
	AddressLine1        patch.Field[string] `json:"addressLine1"`
	AddressLine2        patch.Field[string] `json:"addressLine2"`
	City                patch.Field[string] `json:"city"`
	State               patch.Field[string] `json:"state"`
	PostalCode          patch.Field[string] `json:"postalCode"`
	Country             patch.Field[string] `json:"country"`
	TaxNumber           patch.Field[string] `json:"taxNumber"`
	RegistrationNumber  patch.Field[string] `json:"registrationNumber"`
	InvoicePrefix       patch.Field[string] `json:"invoicePrefix"`
	InvoiceNotes        patch.Field[string] `json:"invoiceNotes"`
	PaymentInstructions patch.Field[string] `json:"paymentInstructions"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Update(r.Context(), userID(r), company.UpdateParams(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Error(w, r, apperr.Validation("Failed to parse form: %v", err))
		return
	}

	file, _, err := r.FormFile("logo")
	if err != nil {
		respond.Error(w, r, apperr.Validation("logo file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, r, apperr.Validation("Failed to read logo: %v", err))
		return
	}

	c, err := h.svc.UpdateLogo(r.Context(), userID(r), data)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) removeLogo(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RemoveLogo(r.Context(), userID(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}
