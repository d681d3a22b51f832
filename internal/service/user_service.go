package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/repository"
)

// UserService is the admin front door of the credential store.
type UserService struct {
	users *repository.UserRepo
}

func NewUserService(users *repository.UserRepo) *UserService {
	if users == nil {
		panic("nil repository passed to NewUserService")
	}
	return &UserService{users: users}
}

// List returns every user without password hashes.
func (s *UserService) List(ctx context.Context, actor model.User) ([]model.User, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateRole changes a user's role.  Because sessions re-resolve the user on
// each request, the change applies to that user's very next call.
func (s *UserService) UpdateRole(ctx context.Context, actor model.User, id uint64, role model.Role) (model.User, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return model.User{}, err
	}
	role, err := model.ParseRole(string(role))
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.users.UpdateRole(ctx, id, role)
}
