package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

const opaqueTokenBytes = 32

type Claims struct {
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the identity carried by a verified access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   user.Role
}

func (p Principal) Actor() user.Actor {
	return user.Actor{ID: p.UserID, Role: p.Role}
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenService(secret, issuer, audience string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (t *TokenService) Issue(u *user.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return signed, expiresAt, nil
}

func (t *TokenService) Parse(raw string) (Principal, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, apperr.Authentication("Token expired")
		}

		return Principal{}, apperr.Authentication("Invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, apperr.Authentication("Invalid token")
	}

	role, err := user.ParseRole(string(claims.Role))
	if err != nil {
		return Principal{}, apperr.Authentication("Invalid token")
	}

	return Principal{UserID: id, Email: claims.Email, Role: role}, nil
}

// NewOpaqueToken returns a random URL-safe token carrying 256 bits of entropy.
func NewOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
