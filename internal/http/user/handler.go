package user

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

// Registrar creates accounts on behalf of an administrator.
type Registrar interface {
	Register(ctx context.Context, params auth.RegisterParams) (*user.User, error)
}

type Handler struct {
	svc       *user.Service
	registrar Registrar
}

func NewHandler(svc *user.Service, registrar Registrar) *Handler {
	return &Handler{svc: svc, registrar: registrar}
}

// Routes must be mounted behind middleware.RequireAuth.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/profile", h.profile)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(user.RoleAdmin))
		r.Get("/", h.list)
		r.Post("/", h.create)
	})
}

type userResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Role           user.Role `json:"role"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toResponse(u *user.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func actor(r *http.Request) user.Actor {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p.Actor()
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid user id")
	}

	return id, nil
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), actor(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toResponse(u)
	}

	respond.JSON(w, http.StatusOK, resp)
}

type createRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Role      string `json:"role"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	role := user.RoleUser
	if req.Role != "" {
		var err error
		if role, err = user.ParseRole(req.Role); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	u, err := h.registrar.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Admin:     role == user.RoleAdmin,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(u))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(u))
}

type updateRequest struct {
	FirstName patch.Field[string] `json:"firstName"`
	LastName  patch.Field[string] `json:"lastName"`
	Email     patch.Field[string] `json:"email"`
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

	u, err := h.svc.Update(r.Context(), actor(r), id, user.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
