package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

// TokenPurpose tags a stored security token with the flow that owns it.
// Each user holds at most one token per purpose.
type TokenPurpose string

const (
	PurposeRefresh       TokenPurpose = "refresh"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// SecurityToken is the server-side record of an opaque token. Only the
// SHA-256 hash of the value is kept.
type SecurityToken struct {
	UserID    uuid.UUID
	Purpose   TokenPurpose
	Hash      string
	ExpiresAt time.Time
}

// Session is the result of every successful sign-in or refresh.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *user.User
}

// ExternalIdentity is an identity already verified by a federated provider.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}
