package company

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

const (
	logoPrefix  = "logos/"
	maxLogoSize = 5 << 20

	maxNameLength   = 200
	maxPrefixLength = 20
)

var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=company
type Repository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*Company, error)
	CreateCompany(ctx context.Context, c *Company) error
	UpdateCompany(ctx context.Context, c *Company) error
	UpdateLogo(ctx context.Context, id uuid.UUID, key, url string) error
}

// BlobStore keeps uploaded files addressed by key.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo  Repository
	blobs BlobStore
}

func NewService(repo Repository, blobs BlobStore) *Service {
	return &Service{repo: repo, blobs: blobs}
}

type UpdateParams struct {
	Name                patch.Field[string]
	Email               patch.Field[string]
	Phone               patch.Field[string]
	Website             patch.Field[string]
	AddressLine1        patch.Field[string]
	AddressLine2        patch.Field[string]
	City                patch.Field[string]
	State               patch.Field[string]
	PostalCode          patch.Field[string]
	Country             patch.Field[string]
	TaxNumber           patch.Field[string]
	RegistrationNumber  patch.Field[string]
	InvoicePrefix       patch.Field[string]
	InvoiceNotes        patch.Field[string]
	PaymentInstructions patch.Field[string]
}

func (p UpdateParams) apply(d *Details) {
	p.Name.Apply(&d.Name)
	p.Email.Apply(&d.Email)
	p.Phone.Apply(&d.Phone)
	p.Website.Apply(&d.Website)
	p.AddressLine1.Apply(&d.AddressLine1)
	p.AddressLine2.Apply(&d.AddressLine2)
	p.City.Apply(&d.City)
	p.State.Apply(&d.State)
	p.PostalCode.Apply(&d.PostalCode)
	p.Country.Apply(&d.Country)
	p.TaxNumber.Apply(&d.TaxNumber)
	p.RegistrationNumber.Apply(&d.RegistrationNumber)
	p.InvoicePrefix.Apply(&d.InvoicePrefix)
	p.InvoiceNotes.Apply(&d.InvoiceNotes)
	p.PaymentInstructions.Apply(&d.PaymentInstructions)
}

// normalize validates d and reduces its email to the bare address, which
// ends up in the From header of invoice emails.
func normalize(d *Details) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Validation("Company name is required")
	}

	if utf8.RuneCountInString(d.Name) > maxNameLength {
		return apperr.Validation("Company name must be at most %d characters", maxNameLength)
	}

	d.InvoicePrefix = strings.TrimSpace(d.InvoicePrefix)
	if utf8.RuneCountInString(d.InvoicePrefix) > maxPrefixLength {
		return apperr.Validation("Invoice prefix must be at most %d characters", maxPrefixLength)
	}

	if d.Email = strings.TrimSpace(d.Email); d.Email != "" {
		addr, err := mail.ParseAddress(d.Email)
		if err != nil {
			return apperr.Validation("Invalid company email")
		}

		d.Email = addr.Address
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Company, error) {
	return s.repo.GetCompanyByUser(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, details Details) (*Company, error) {
	if err := normalize(&details); err != nil {
		return nil, err
	}

	c := &Company{UserID: userID, Details: details}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("company created", "company_id", c.ID, "user_id", userID)

	return c, nil
}

// Update merges params into the caller's company.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, params UpdateParams) (*Company, error) {
	return s.save(ctx, userID, params.apply)
}

// Replace overwrites every editable field of the caller's company. The logo
// is kept.
func (s *Service) Replace(ctx context.Context, userID uuid.UUID, details Details) (*Company, error) {
	return s.save(ctx, userID, func(d *Details) { *d = details })
}

func (s *Service) save(ctx context.Context, userID uuid.UUID, change func(*Details)) (*Company, error) {
	c, err := s.repo.GetCompanyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	change(&c.Details)

	if err := normalize(&c.Details); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCompany(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// UpdateLogo stores a new logo and points the company at it. Failing to
// delete the previous logo is logged and does not block the upload.
func (s *Service) UpdateLogo(ctx context.Context, userID uuid.UUID, data []byte) (*Company, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("Logo file is empty")
	}

	if len(data) > maxLogoSize {
		return nil, apperr.Validation("Logo must be smaller than %d MB", maxLogoSize>>20)
	}

	contentType := http.DetectContentType(data)

	ext, ok := logoTypes[contentType]
	if !ok {
		return nil, apperr.Validation("Logo must be a PNG, JPEG, GIF or WebP image")
	}

	c, err := s.repo.GetCompanyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.deleteLogo(ctx, c)

	key := logoPrefix + uuid.NewString() + ext

	url, err := s.blobs.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("uploading logo: %w", err)
	}

	if err := s.repo.UpdateLogo(ctx, c.ID, key, url); err != nil {
		return nil, err
	}

	c.LogoKey, c.LogoURL = key, url

	return c, nil
}

func (s *Service) RemoveLogo(ctx context.Context, userID uuid.UUID) (*Company, error) {
	c, err := s.repo.GetCompanyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if c.LogoKey == "" && c.LogoURL == "" {
		return c, nil
	}

	s.deleteLogo(ctx, c)

	if err := s.repo.UpdateLogo(ctx, c.ID, "", ""); err != nil {
		return nil, err
	}

	c.LogoKey, c.LogoURL = "", ""

	return c, nil
}

func (s *Service) deleteLogo(ctx context.Context, c *Company) {
	key := c.LogoKey
	if key == "" && c.LogoURL != "" {
		key = logoPrefix + path.Base(c.LogoURL)
	}

	if key == "" {
		return
	}

	if err := s.blobs.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete old logo", "company_id", c.ID, "key", key, "error", err)
	}
}
