package auth

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
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

// RefreshCookie carries the opaque refresh token.
const RefreshCookie = "refreshToken"

type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (auth.ExternalIdentity, error)
}

type Options struct {
	// SecureCookies is off only for plain-HTTP development servers.
	SecureCookies bool
	// ExposeResetLink returns the password reset link in the response body.
	ExposeResetLink bool
}

type Handler struct {
	svc      *auth.Service
	tokens   *auth.TokenService
	verifier IdentityVerifier
	opts     Options
}

func NewHandler(svc *auth.Service, tokens *auth.TokenService, verifier IdentityVerifier, opts Options) *Handler {
	return &Handler{svc: svc, tokens: tokens, verifier: verifier, opts: opts}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh-token", h.refresh)
	r.Post("/logout", h.logout)
	r.Get("/email-available", h.emailAvailable)
	r.Post("/google", h.google)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)

	r.With(middleware.RequireAuth(h.tokens)).Post("/change-password", h.changePassword)
}

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/users/"+u.ID.String())
	respond.JSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.startSession(w, session)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		respond.Error(w, r, apperr.Authentication("No refresh token provided"))
		return
	}

	session, err := h.svc.Refresh(r.Context(), c.Value)
	if err != nil {
		h.clearCookies(w)
		respond.Error(w, r, err)

		return
	}

	h.startSession(w, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		if err := h.svc.Revoke(r.Context(), c.Value); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	h.clearCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) emailAvailable(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respond.Error(w, r, apperr.Validation("email is required"))
		return
	}

	ok, err := h.svc.IsEmailAvailable(r.Context(), email)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"available": ok})
}

type googleRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

func (h *Handler) google(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := h.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	session, err := h.svc.SignInFederated(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.startSession(w, session)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	p, _ := middleware.PrincipalFrom(r.Context())

	ok, err := h.svc.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if !ok {
		respond.Error(w, r, apperr.Validation("Current password is incorrect"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type forgotPasswordResponse struct {
	ResetLink string `json:"resetLink,omitempty"`
}

// forgotPassword answers the same way whether or not the account exists.
func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	link, err := h.svc.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var resp forgotPasswordResponse
	if h.opts.ExposeResetLink {
		resp.ResetLink = link
	}

	respond.JSON(w, http.StatusOK, resp)
}

type resetPasswordRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	ok, err := h.svc.ResetPassword(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if !ok {
		respond.Error(w, r, apperr.Validation("Invalid or expired password reset token"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startSession(w http.ResponseWriter, s *auth.Session) {
	h.setCookie(w, RefreshCookie, s.RefreshToken, s.RefreshExpiresAt)
	h.setCookie(w, middleware.AccessCookie, s.AccessToken, s.AccessExpiresAt)

	respond.JSON(w, http.StatusOK, sessionResponse{
		Token:     s.AccessToken,
		ExpiresAt: s.AccessExpiresAt,
		User:      toUserResponse(s.User),
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	for _, name := range []string{RefreshCookie, middleware.AccessCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.opts.SecureCookies,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
