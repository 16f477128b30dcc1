// Package middleware authenticates requests and scopes them to a tenant.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/tenant"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

// AccessCookie is read when no Authorization header is sent.
const AccessCookie = "token"

type principalKey struct{}

// RequireAuth rejects requests without a valid access token and stores the
// token's principal in the request context.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond.Error(w, r, apperr.Authentication("Authentication required"))
				return
			}

			p, err := tokens.Parse(raw)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}

		return ""
	}

	if c, err := r.Cookie(AccessCookie); err == nil {
		return c.Value
	}

	return ""
}

// RequireRole must run after RequireAuth.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok || p.Role != role {
				respond.Error(w, r, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompany resolves the caller's company and stores its id in the
// request context. It must run after RequireAuth.
func RequireCompany(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				respond.Error(w, r, apperr.Authentication("Authentication required"))
				return
			}

			companyID, err := resolver.CompanyID(r.Context(), p.UserID)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(tenant.WithCompany(r.Context(), companyID)))
		})
	}
}

func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// WithPrincipal is used by handler tests to skip token parsing.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// CompanyID returns the tenant stored by RequireCompany.
func CompanyID(r *http.Request) uuid.UUID {
	id, _ := tenant.CompanyFromContext(r.Context())
	return id
}
