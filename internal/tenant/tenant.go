// Package tenant resolves the company every client and invoice operation is
// scoped to. The company always comes from the authenticated user, never
// from the request.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
)

//go:generate mockgen -source=tenant.go -destination=lookup_mock.go -package=tenant
type CompanyLookup interface {
	GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*company.Company, error)
}

type Resolver struct {
	companies CompanyLookup
}

func NewResolver(companies CompanyLookup) *Resolver {
	return &Resolver{companies: companies}
}

// CompanyID returns the id of the company owned by userID.
func (r *Resolver) CompanyID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	c, err := r.companies.GetCompanyByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return uuid.Nil, apperr.NotFound("Company not found")
		}

		return uuid.Nil, err
	}

	return c.ID, nil
}

type ctxKey struct{}

func WithCompany(ctx context.Context, companyID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, companyID)
}

func CompanyFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
