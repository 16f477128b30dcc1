package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/mail"
	"github.com/MrJamesThe3rd/invoicer/internal/metrics"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidRefresh     = "Invalid refresh token"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=auth
type Repository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// SaveToken stores t, replacing any token the user holds for the same purpose.
	SaveToken(ctx context.Context, t SecurityToken) error
	GetToken(ctx context.Context, userID uuid.UUID, purpose TokenPurpose) (*SecurityToken, error)
	// RotateRefreshToken swaps the unexpired refresh token hashed as oldHash
	// for next and returns its owner; next.UserID is ignored. It fails with
	// apperr.ErrNotFound when no such token exists, so a token can be
	// rotated at most once.
	RotateRefreshToken(ctx context.Context, oldHash string, next SecurityToken) (uuid.UUID, error)
	DeleteTokenByHash(ctx context.Context, purpose TokenPurpose, hash string) error
	// ResetPassword replaces the password hash and drops every security token
	// the user holds.
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type Notifier interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Options struct {
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	BcryptCost int
	// AppURL is the public front-end address reset links point to.
	AppURL   string
	MailFrom string
	Now      func() time.Time
}

type Service struct {
	repo     Repository
	tokens   *TokenService
	notifier Notifier
	opts     Options
}

func NewService(repo Repository, tokens *TokenService, notifier Notifier, opts Options) *Service {
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}

	if opts.ResetTTL == 0 {
		opts.ResetTTL = 24 * time.Hour
	}

	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{repo: repo, tokens: tokens, notifier: notifier, opts: opts}
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Admin     bool
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*user.User, error) {
	email := user.NormalizeEmail(params.Email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}

	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Role:         user.RoleUser,
	}
	if params.Admin {
		u.Role = user.RoleAdmin
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.Role)

	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.login(ctx, email, password)
	metrics.ObserveLogin("password", err)

	return session, err
}

func (s *Service) login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repo.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			slog.Warn("login failed: unknown email")
			return nil, apperr.Authentication(msgInvalidCredentials)
		}

		return nil, err
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		slog.Warn("login failed: password mismatch", "user_id", u.ID)
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	slog.Info("login succeeded", "user_id", u.ID)

	return s.startSession(ctx, u)
}

func (s *Service) startSession(ctx context.Context, u *user.User) (*Session, error) {
	refresh, token, err := s.newToken(u.ID, PurposeRefresh, s.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveToken(ctx, token); err != nil {
		return nil, err
	}

	return s.session(u, refresh, token.ExpiresAt)
}

func (s *Service) session(u *user.User, refresh string, refreshExpiresAt time.Time) (*Session, error) {
	access, accessExpiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiresAt,
		User:             u,
	}, nil
}

func (s *Service) newToken(userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (string, SecurityToken, error) {
	raw, err := NewOpaqueToken()
	if err != nil {
		return "", SecurityToken{}, err
	}

	return raw, SecurityToken{
		UserID:    userID,
		Purpose:   purpose,
		Hash:      HashToken(raw),
		ExpiresAt: s.opts.Now().Add(ttl),
	}, nil
}

// Refresh exchanges a refresh token for a new session. The presented token
// stops being valid as soon as this succeeds.
func (s *Service) Refresh(ctx context.Context, presented string) (*Session, error) {
	session, err := s.refresh(ctx, presented)
	metrics.ObserveLogin("refresh", err)

	return session, err
}

func (s *Service) refresh(ctx context.Context, presented string) (*Session, error) {
	if presented == "" {
		return nil, apperr.Authentication(msgInvalidRefresh)
	}

	refresh, next, err := s.newToken(uuid.Nil, PurposeRefresh, s.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	userID, err := s.repo.RotateRefreshToken(ctx, HashToken(presented), next)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			slog.Warn("refresh rejected: unknown or expired token")
			return nil, apperr.Authentication(msgInvalidRefresh)
		}

		return nil, err
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Authentication(msgInvalidRefresh)
		}

		return nil, err
	}

	return s.session(u, refresh, next.ExpiresAt)
}

// Revoke invalidates a refresh token. Unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	return s.repo.DeleteTokenByHash(ctx, PurposeRefresh, HashToken(presented))
}

// SignInFederated signs in a user verified by an external provider, creating
// the account on first sight and linking it by email otherwise.
func (s *Service) SignInFederated(ctx context.Context, id ExternalIdentity) (*Session, error) {
	session, err := s.signInFederated(ctx, id)
	metrics.ObserveLogin("google", err)

	return session, err
}

func (s *Service) signInFederated(ctx context.Context, id ExternalIdentity) (*Session, error) {
	email := user.NormalizeEmail(id.Email)
	if id.Subject == "" || email == "" {
		return nil, apperr.Authentication("Invalid external identity")
	}

	u, err := s.repo.GetUserByGoogleID(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		u, err = s.repo.GetUserByEmail(ctx, email)
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		u = &user.User{
			Email:          email,
			FirstName:      id.FirstName,
			LastName:       id.LastName,
			Role:           user.RoleUser,
			EmailConfirmed: id.EmailVerified,
			GoogleID:       &id.Subject,
		}

		if err := s.repo.CreateUser(ctx, u); err != nil {
			return nil, err
		}

		slog.Info("user created from federated sign-in", "user_id", u.ID)
	case err != nil:
		return nil, err
	default:
		u.GoogleID = &id.Subject
		u.EmailConfirmed = id.EmailVerified

		if id.FirstName != "" {
			u.FirstName = id.FirstName
		}

		if id.LastName != "" {
			u.LastName = id.LastName
		}

		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
	}

	return s.startSession(ctx, u)
}

// ChangePassword reports false when the user is unknown or currentPassword
// does not match.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) (bool, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)) != nil {
		return false, nil
	}

	if err := ValidatePassword(newPassword); err != nil {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.opts.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return false, err
	}

	slog.Info("password changed", "user_id", userID)

	return true, nil
}

// GeneratePasswordResetToken returns an empty token, and no error, when the
// email is unknown.
func (s *Service) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil
		}

		return "", err
	}

	raw, token, err := s.newToken(u.ID, PurposePasswordReset, s.opts.ResetTTL)
	if err != nil {
		return "", err
	}

	if err := s.repo.SaveToken(ctx, token); err != nil {
		return "", err
	}

	slog.Info("password reset token issued", "user_id", u.ID)

	return raw, nil
}

// RequestPasswordReset mails a reset link to the account holder and returns
// the link. Unknown emails produce an empty link and no error.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	token, err := s.GeneratePasswordResetToken(ctx, email)
	if err != nil || token == "" {
		return "", err
	}

	email = user.NormalizeEmail(email)
	link := resetLink(s.opts.AppURL, email, token)

	err = s.notifier.Send(ctx, mail.Message{
		From:     s.opts.MailFrom,
		To:       email,
		Subject:  "Reset Your Password",
		TextBody: resetText(link, s.opts.ResetTTL),
		HTMLBody: resetHTML(link, s.opts.ResetTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sending reset email: %w", err)
	}

	return link, nil
}

func resetLink(appURL, email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)

	return strings.TrimRight(appURL, "/") + "/reset-password?" + q.Encode()
}

func resetText(link string, ttl time.Duration) string {
	return "Reset Your Password\n\n" +
		"You have requested to reset your password. Open the link below to set a new password:\n\n" +
		link + "\n\n" +
		"If you didn't request this, you can safely ignore this email.\n" +
		fmt.Sprintf("This link will expire in %d hours.", int(ttl.Hours()))
}

func resetHTML(link string, ttl time.Duration) string {
	return "<html><body><h2>Reset Your Password</h2>" +
		"<p>You have requested to reset your password. Click the link below to set a new password:</p>" +
		`<p><a href="` + link + `">Reset Password</a></p>` +
		"<p>If you didn't request this, you can safely ignore this email.</p>" +
		fmt.Sprintf("<p>This link will expire in %d hours.</p>", int(ttl.Hours())) +
		"</body></html>"
}

// ResetPassword reports false unless token is the unexpired reset token of
// the account registered under email.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error) {
	u, err := s.repo.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	stored, err := s.repo.GetToken(ctx, u.ID, PurposePasswordReset)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(stored.Hash), []byte(HashToken(token))) != 1 {
		return false, nil
	}

	if !s.opts.Now().Before(stored.ExpiresAt) {
		return false, nil
	}

	if err := ValidatePassword(newPassword); err != nil {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.opts.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.repo.ResetPassword(ctx, u.ID, string(hash)); err != nil {
		return false, err
	}

	slog.Info("password reset", "user_id", u.ID)

	return true, nil
}

func (s *Service) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return true, nil
		}

		return false, err
	}

	return false, nil
}
