package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 30, cfg.RateLimitMax)
	assert.Equal(t, 1000, cfg.SecurityLogCapacity)
	assert.Equal(t, 24*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigProductionRequiresAdminHash(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://beatrix.media")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, []string{"https://beatrix.media"}, cfg.AllowedOrigins)
}
