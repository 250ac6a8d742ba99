package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/auth"
)

func newAuthService(t *testing.T) (*AuthService, *repositories.UserRepository) {
	t.Helper()
	db := newTestDB(t)
	users := repositories.NewUserRepository(db)
	return NewAuthService(users, repositories.NewAdminRepository(db)), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	in := RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Password: "secret123",
	}
	user, token, err := svc.Register(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEmpty(t, token)
	require.NotEqual(t, "secret123", user.Password)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.False(t, claims.IsAdmin)

	_, _, err = svc.Login(ctx, LoginInput{Email: in.Email, Password: "secret123"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Email: in.Email, Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidLogin)

	_, _, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrInvalidLogin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	in := RegisterInput{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "secret123"}
	_, _, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "",
		Email:    "not-an-email",
		Phone:    "12",
		Password: "123",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "phone")
	require.Contains(t, verr.Fields, "password")
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
		CurrentPassword: "wrong-pass",
		NewPassword:     "newsecret",
	})
	require.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
		CurrentPassword: "secret123",
		NewPassword:     "newsecret",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "newsecret"})
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrInvalidLogin)
}

func TestEnsureDefaultAdminAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	// Second call is a no-op.
	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	admin, token, err := svc.AdminLogin(ctx, LoginInput{
		Email:    config.AdminEmail(),
		Password: config.AdminPassword(),
	})
	require.NoError(t, err)
	require.NotZero(t, admin.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin)

	_, _, err = svc.AdminLogin(ctx, LoginInput{Email: config.AdminEmail(), Password: "nope-nope"})
	require.ErrorIs(t, err, ErrInvalidLogin)
}
