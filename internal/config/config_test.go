package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("PROVIDER_TIMEOUT", "")
	t.Setenv("DIRECTORY_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5*time.Second, cfg.DirectoryTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("DIRECTORY_TIMEOUT", "500ms")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "9999", cfg.AppPort)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.DirectoryTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "tomorrow")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}
