package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_IssueParse(t *testing.T) {
	ts := auth.NewTokenService(testSecret, "invoicer-api", "invoicer-client", 15*time.Minute)
	u := &user.User{ID: uuid.New(), Email: "ada@example.com", Role: user.RoleAdmin}

	raw, exp, err := ts.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	p, err := ts.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{UserID: u.ID, Email: u.Email, Role: user.RoleAdmin}, p)
	assert.Equal(t, user.Actor{ID: u.ID, Role: user.RoleAdmin}, p.Actor())
}

func TestTokenService_ParseRejects(t *testing.T) {
	u := &user.User{ID: uuid.New(), Email: "ada@example.com", Role: user.RoleUser}
	ts := auth.NewTokenService(testSecret, "invoicer-api", "invoicer-client", time.Minute)

	expired, _, err := auth.NewTokenService(testSecret, "invoicer-api", "invoicer-client", -time.Minute).Issue(u)
	require.NoError(t, err)

	otherAudience, _, err := auth.NewTokenService(testSecret, "invoicer-api", "someone-else", time.Minute).Issue(u)
	require.NoError(t, err)

	otherIssuer, _, err := auth.NewTokenService(testSecret, "evil", "invoicer-client", time.Minute).Issue(u)
	require.NoError(t, err)

	otherKey, _, err := auth.NewTokenService("ffffffffffffffffffffffffffffffff", "invoicer-api", "invoicer-client", time.Minute).Issue(u)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": u.ID.String(), "iss": "invoicer-api", "aud": "invoicer-client",
		"exp": time.Now().Add(time.Hour).Unix(), "role": "Admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"Expired":       expired,
		"OtherAudience": otherAudience,
		"OtherIssuer":   otherIssuer,
		"OtherKey":      otherKey,
		"AlgNone":       unsigned,
		"Garbage":       "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Parse(raw)
			assert.ErrorIs(t, err, apperr.ErrAuthentication)
		})
	}
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := auth.NewOpaqueToken()
	require.NoError(t, err)

	b, err := auth.NewOpaqueToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.Len(t, auth.HashToken(a), 64)
	assert.Equal(t, auth.HashToken(a), auth.HashToken(a))
}
