package user

import (
	"context"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type UpdateParams struct {
	FirstName patch.Field[string]
	LastName  patch.Field[string]
	Email     patch.Field[string]
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, actor Actor) ([]*User, error) {
	if actor.Role != RoleAdmin {
		return nil, apperr.Forbidden("Only administrators can list users")
	}

	return s.repo.ListUsers(ctx)
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*User, error) {
	if !actor.CanManage(id) {
		return nil, apperr.Forbidden("Not allowed to view this user")
	}

	return s.repo.GetUser(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, params UpdateParams) (*User, error) {
	if !actor.CanManage(id) {
		return nil, apperr.Forbidden("Not allowed to update this user")
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	params.FirstName.Apply(&u.FirstName)
	params.LastName.Apply(&u.LastName)

	switch {
	case params.Email.IsCleared():
		return nil, apperr.Validation("Email is required")
	case params.Email.IsSet():
		addr, err := mail.ParseAddress(NormalizeEmail(params.Email.Value()))
		if err != nil {
			return nil, apperr.Validation("Invalid email address")
		}

		u.Email = addr.Address
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.CanManage(id) {
		return apperr.Forbidden("Not allowed to delete this user")
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id, "by", actor.ID)

	return nil
}
