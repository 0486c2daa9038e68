package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLoginAndSingleSession(t *testing.T) {
	env := newTestEnv(t)

	admin, created, err := env.auth.EnsureAdmin("admin@example.com", "secret123", "Admin")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = env.auth.EnsureAdmin("admin@example.com", "other", "Admin")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = env.auth.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	first, err := env.auth.Login("admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, first.User.ID)

	user, err := env.auth.ValidateToken(first.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)

	second, err := env.auth.Login("admin@example.com", "secret123")
	require.NoError(t, err)

	_, err = env.auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = env.auth.ValidateToken(second.Token)
	assert.NoError(t, err)
}

func TestAuthResetPassword(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.auth.EnsureAdmin("admin@example.com", "secret123", "Admin")
	require.NoError(t, err)

	assert.ErrorIs(t, env.auth.ResetPassword("admin@example.com", "bad", "new-secret"), ErrWrongPassword)
	require.NoError(t, env.auth.ResetPassword("admin@example.com", "secret123", "new-secret"))

	_, err = env.auth.Login("admin@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login("admin@example.com", "new-secret")
	assert.NoError(t, err)
}
