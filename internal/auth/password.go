package auth

import (
	"unicode"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
)

const minPasswordLength = 8

// ValidatePassword enforces the password complexity rules.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return apperr.Validation("Password must be at least %d characters", minPasswordLength)
	}

	var upper, lower, digit, special bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return apperr.Validation("Password must contain an uppercase letter, a lowercase letter, a number and a special character")
	}

	return nil
}
