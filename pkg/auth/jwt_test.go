package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftline/thriftline/pkg/auth"
)

func TestUserTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestAdminTokenCarriesClaim(t *testing.T) {
	token, err := auth.GenerateAdminToken(1)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := auth.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, auth.CheckPassword(hash, "s3cret-pass"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
