package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thriftline/thriftline/app/repositories"
)

func TestProfileUpdateMerges(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repositories.NewUserRepository(db))
	ctx := context.Background()

	user := seedUser(t, db, "asha@example.com")

	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: "Asha K"})
	require.NoError(t, err)
	require.Equal(t, "Asha K", updated.Name)
	require.Equal(t, user.Phone, updated.Phone)
	require.Equal(t, user.Email, updated.Email)

	_, err = svc.UpdateProfile(ctx, 999, UpdateProfileInput{Name: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminUserListingAndRemoval(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repositories.NewUserRepository(db))
	ctx := context.Background()

	a := seedUser(t, db, "a@example.com")
	seedUser(t, db, "b@example.com")

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.Remove(ctx, a.ID))
	require.ErrorIs(t, svc.Remove(ctx, a.ID), ErrNotFound)

	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
