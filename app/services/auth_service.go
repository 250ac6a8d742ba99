package services

import (
	"context"
	"errors"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/auth"
	"github.com/thriftline/thriftline/pkg/logger"
	"github.com/thriftline/thriftline/pkg/validate"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,digits=10"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is shared by user and admin login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput requires the current password before setting a new one.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthService handles signup, login, and credential changes for both users
// and admins. Admin accounts live in a separate table and issue tokens with
// the admin claim set.
type AuthService struct {
	users  *repositories.UserRepository
	admins *repositories.AdminRepository
}

func NewAuthService(users *repositories.UserRepository, admins *repositories.AdminRepository) *AuthService {
	return &AuthService{users: users, admins: admins}
}

// Register creates a user account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, "", &ValidationError{Fields: errs}
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNoRecord) {
		return nil, "", err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login checks user credentials and returns the account with a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, "", &ValidationError{Fields: errs}
	}
	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNoRecord) {
		return nil, "", ErrInvalidLogin
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, "", ErrInvalidLogin
	}
	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AdminLogin checks admin credentials and returns an admin-scoped token.
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (*models.Admin, string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, "", &ValidationError{Fields: errs}
	}
	admin, err := s.admins.FindByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNoRecord) {
		return nil, "", ErrInvalidLogin
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(admin.Password, in.Password) {
		return nil, "", ErrInvalidLogin
	}
	token, err := auth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}
	user, err := s.users.Find(ctx, userID)
	if errors.Is(err, repositories.ErrNoRecord) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, in.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("password changed", "user_id", userID)
	return nil
}

// EnsureDefaultAdmin creates the bootstrap admin account if no admin with
// the configured email exists yet. Safe to call on every boot.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	email := config.AdminEmail()
	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNoRecord) {
		return err
	}
	hash, err := auth.HashPassword(config.AdminPassword())
	if err != nil {
		return err
	}
	if err := s.admins.Insert(ctx, &models.Admin{Email: email, Password: hash}); err != nil {
		return err
	}
	logger.Info("default admin created", "email", email)
	return nil
}
