package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, password string, active bool) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return User{
		ID:           "user-admin",
		Email:        "admin@beatrix.media",
		Name:         "Beatrix Admin",
		Role:         RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     active,
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository([]User{seedUser(t, "orchid-breeze-42", true)}))
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "admin@beatrix.media", "orchid-breeze-42")
		require.NoError(t, err)
		assert.Equal(t, "user-admin", user.ID)
		assert.Equal(t, RoleAdmin, user.Role)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "Admin@Beatrix.Media", "orchid-breeze-42")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "admin@beatrix.media", "wrong-password-1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@beatrix.media", "orchid-breeze-42")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		disabled := NewService(NewMemoryRepository([]User{seedUser(t, "orchid-breeze-42", false)}))
		_, err := disabled.Authenticate(ctx, "admin@beatrix.media", "orchid-breeze-42")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
