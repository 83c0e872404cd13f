package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tenant_portal")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("CORS_ORIGINS", "http://localhost:4200, https://app.example.ch")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, []string{"http://localhost:4200", "https://app.example.ch"}, cfg.GetCORSOrigins())
	assert.False(t, cfg.GetEmailEnabled())
	assert.Equal(t, 5*time.Minute, cfg.GetFunnelCacheTTL())
	assert.Equal(t, "viewings", cfg.GetViewingQueueName())
	assert.Equal(t, 10, cfg.GetAsynqConcurrency())
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tenant_portal")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSenderWhenEmailEnabled(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tenant_portal")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SMTP_HOST", "smtp.example.ch")
	t.Setenv("EMAIL_FROM_ADDRESS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_FROM_ADDRESS")
}
