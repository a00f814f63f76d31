package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inventory-api/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")
	t.Setenv("CACHE_TTL", "")

	cfg := config.LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
}

// The fallback secret is resolved once here, so the token issuer and
// the authentication middleware always share it.
func TestLoadConfigSecretResolvedOnce(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	first := config.LoadConfig()
	second := config.LoadConfig()
	assert.Equal(t, first.JWTSecret, second.JWTSecret)

	t.Setenv("JWT_SECRET", "explicit-secret")
	cfg := config.LoadConfig()
	assert.Equal(t, "explicit-secret", cfg.JWTSecret)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("CACHE_TTL", "1h")

	cfg := config.LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLoadConfigBadDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg := config.LoadConfig()
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}
