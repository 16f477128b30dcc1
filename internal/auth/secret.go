package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

const minSecretLength = 32

var weakSecrets = []string{
	"changeme",
	"secret",
	"password",
	"test",
	"dev",
	"development",
	"your-secret-key",
}

// ValidateSecret checks the JWT signing secret at startup. Weak secrets are
// tolerated with a warning in development and rejected everywhere else.
func ValidateSecret(secret string, isDev bool) error {
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if slices.Contains(weakSecrets, secret) {
		if isDev {
			slog.Warn("using a weak JWT secret, not for production use")
			return nil
		}

		return errors.New("weak JWT secret not allowed outside development")
	}

	if len(secret) < minSecretLength {
		if isDev {
			slog.Warn("jwt secret is shorter than recommended", "length", len(secret))
			return nil
		}

		return fmt.Errorf("JWT secret must be at least %d characters (got %d)", minSecretLength, len(secret))
	}

	return nil
}
