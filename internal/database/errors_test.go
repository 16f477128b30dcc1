package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoicer/internal/database"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	assert.True(t, database.IsUniqueViolation(dup, ""))
	assert.True(t, database.IsUniqueViolation(fmt.Errorf("creating user: %w", dup), "users_email_key"))
	assert.False(t, database.IsUniqueViolation(dup, "invoices_company_number_key"))
	assert.False(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, database.IsUniqueViolation(errors.New("boom"), ""))
}
