package services

import (
	"context"
	"errors"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/pkg/logger"
	"github.com/thriftline/thriftline/pkg/validate"
)

// UpdateProfileInput carries a partial profile edit; absent fields keep
// their stored value.
type UpdateProfileInput struct {
	Name           string `json:"name" validate:"nullable,max=255"`
	Phone          string `json:"phone" validate:"nullable,digits=10"`
	ProfilePicture string `json:"profilePicture" validate:"nullable,max=255"`
}

// UserService exposes profile reads and edits, plus the admin-only user
// listing and removal.
type UserService struct {
	users *repositories.UserRepository
}

func NewUserService(users *repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// Profile returns the user's own account.
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.Find(ctx, userID)
	if errors.Is(err, repositories.ErrNoRecord) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateProfile merges the provided fields into the user's account. Email
// is not editable through this path.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = merge(user.Name, in.Name)
	user.Phone = merge(user.Phone, in.Phone)
	user.ProfilePicture = merge(user.ProfilePicture, in.ProfilePicture)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("profile updated", "user_id", userID)
	return user, nil
}

// ListAll returns every user account. Admin only; routing enforces that.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

// Remove deletes a user account. Admin only; their listings are left in
// place.
func (s *UserService) Remove(ctx context.Context, userID uint) error {
	err := s.users.Delete(ctx, userID)
	if errors.Is(err, repositories.ErrNoRecord) {
		return ErrNotFound
	}
	if err == nil {
		logger.WithCtx(ctx).Info("user removed", "user_id", userID)
	}
	return err
}
