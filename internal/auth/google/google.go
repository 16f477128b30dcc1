// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"log/slog"

	"google.golang.org/api/idtoken"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
)

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type Verifier struct {
	clientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks the token signature, expiry and audience and returns the
// identity it asserts.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (auth.ExternalIdentity, error) {
	if v.clientID == "" {
		return auth.ExternalIdentity{}, apperr.Precondition("Google sign-in is not configured")
	}

	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		slog.Warn("google token rejected", "error", err)
		return auth.ExternalIdentity{}, apperr.Authentication("Invalid Google token")
	}

	id := auth.ExternalIdentity{
		Subject:       payload.Subject,
		Email:         stringClaim(payload.Claims, "email"),
		FirstName:     stringClaim(payload.Claims, "given_name"),
		LastName:      stringClaim(payload.Claims, "family_name"),
		EmailVerified: boolClaim(payload.Claims, "email_verified"),
	}

	if id.Subject == "" || id.Email == "" {
		return auth.ExternalIdentity{}, apperr.Authentication("Invalid Google token")
	}

	return id, nil
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

func boolClaim(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}

	return false
}
