package client

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

type Handler struct {
	svc *client.Service
}

func NewHandler(svc *client.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes must be mounted behind middleware.RequireCompany.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid client id")
	}

	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req detailsDTO
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), middleware.CompanyID(r), req.toDetails())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.List(r.Context(), middleware.CompanyID(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(clients))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Get(r.Context(), middleware.CompanyID(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

type updateRequest struct {
	Name         patch.Field[string] `json:"name"`
	Email        patch.Field[string] `json:"email"`
	Phone        patch.Field[string] `json:"phone"`
	AddressLine1 patch.Field[string] `json:"addressLine1"`
	AddressLine2 patch.Field[string] `json:"addressLine2"`
	City         patch.Field[string] `json:"city"`
	State        patch.Field[string] `json:"state"`
	PostalCode   patch.Field[string] `json:"postalCode"`
	Country      patch.Field[string] `json:"country"`
	TaxNumber    patch.Field[string] `json:"taxNumber"`
	Notes        patch.Field[string] `json:"notes"`
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

	c, err := h.svc.Update(r.Context(), middleware.CompanyID(r), id, client.UpdateParams(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
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
