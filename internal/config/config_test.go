package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"JWT_SECRET", "FRONTEND_URL", "ADMIN_URL", "ALLOWED_ORIGINS", "OAUTH_REDIRECT_URL",
		"OAUTH_HTTP_TIMEOUT", "DATABASE_URL", "DATABASE_AUTH_TOKEN", "REDIS_URL",
		"STATE_BINDING", "AUTH_RATE_LIMIT", "AUTH_RATE_BURST", "TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:4321", cfg.FrontendURL)
	assert.Equal(t, 10*time.Second, cfg.OAuthHTTPTimeout)
	assert.Equal(t, "none", cfg.StateBinding)
	assert.Equal(t, 5.0, cfg.AuthRateLimit)
	assert.Equal(t, 10, cfg.AuthRateBurst)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FRONTEND_URL", "https://menu.example.com/")
	t.Setenv("ADMIN_URL", "https://admin.example.com")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com/ ,")
	t.Setenv("OAUTH_HTTP_TIMEOUT", "3s")
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("STATE_BINDING", "redis")
	t.Setenv("AUTH_RATE_LIMIT", "2.5")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "cid", cfg.GoogleClientID)
	assert.Equal(t, "https://menu.example.com", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com/"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.OAuthHTTPTimeout)
	assert.Equal(t, "redis", cfg.StateBinding)
	assert.Equal(t, 2.5, cfg.AuthRateLimit)
	assert.True(t, cfg.TrustProxy)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, []string{
		"https://menu.example.com",
		"https://admin.example.com",
		"https://a.example.com",
		"https://b.example.com",
	}, cfg.FrontendOrigins())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"OAUTH_HTTP_TIMEOUT", "soon"},
		{"OAUTH_HTTP_TIMEOUT", "-1s"},
		{"AUTH_RATE_LIMIT", "fast"},
		{"AUTH_RATE_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{FrontendURL: "http://localhost:4321"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DATABASE_URL")

	cfg.JWTSecret = "s"
	cfg.DatabaseURL = "sqlite::memory:"
	assert.NoError(t, cfg.Validate())

	// client id is optional at boot
	assert.Empty(t, cfg.GoogleClientID)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{}, parseOrigins(""))
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a ,b,, "))
}
