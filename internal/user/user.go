package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
)

// Role is the closed set of authorization roles a user can hold.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}

	return "", apperr.Validation("Invalid role %q", s)
}

type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Role           Role
	EmailConfirmed bool
	GoogleID       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// CanManage reports whether the actor may act on the user with the given id.
func (a Actor) CanManage(id uuid.UUID) bool {
	return a.Role == RoleAdmin || a.ID == id
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
