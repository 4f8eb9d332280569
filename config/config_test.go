package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, "", cfg.Redis.Host)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "cache:6380", cfg.Redis.RedisAddr())
	assert.True(t, cfg.OTEL.Enabled)
	assert.Equal(t, int32(30), cfg.Database.MaxConns)
}

func TestValidate(t *testing.T) {
	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := &Config{Environment: "production", Storage: StorageConfig{Driver: "local"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("development gets a fallback secret", func(t *testing.T) {
		cfg := &Config{Environment: "development", Storage: StorageConfig{Driver: "local"}}
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWT.Secret)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		cfg := &Config{JWT: JWTConfig{Secret: "x"}, Storage: StorageConfig{Driver: "s3"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		cfg := &Config{JWT: JWTConfig{Secret: "x"}, Storage: StorageConfig{Driver: "ftp"}}
		assert.Error(t, cfg.Validate())
	})
}
