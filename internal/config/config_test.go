package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_StaticToken(t *testing.T) {
	t.Setenv("CASEDESK_API_BASE_URL", "https://cases-api.example.com/")
	t.Setenv("CASEDESK_PORTAL_URL", "https://portal.example.com")
	t.Setenv("CASEDESK_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cases-api.example.com", cfg.APIBaseURL, "trailing slash trimmed")
	assert.Equal(t, "https://portal.example.com", cfg.PortalURL)
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoad_DeviceLogin(t *testing.T) {
	t.Setenv("CASEDESK_API_BASE_URL", "https://cases-api.example.com")
	t.Setenv("CASEDESK_AUTH_DOMAIN", "https://login.example.com")
	t.Setenv("CASEDESK_AUTH_CLIENT_ID", "client-123")
	t.Setenv("CASEDESK_AUTH_AUDIENCE", "https://cases-api.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Token)
	assert.Equal(t, "https://login.example.com", cfg.AuthDomain)
	assert.Equal(t, "client-123", cfg.AuthClientID)
}

func TestLoad_RequiresBaseURL(t *testing.T) {
	t.Setenv("CASEDESK_API_BASE_URL", "")
	t.Setenv("CASEDESK_TOKEN", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CASEDESK_API_BASE_URL")
}

func TestLoad_RequiresSomeCredential(t *testing.T) {
	t.Setenv("CASEDESK_API_BASE_URL", "https://cases-api.example.com")
	t.Setenv("CASEDESK_TOKEN", "")
	t.Setenv("CASEDESK_AUTH_DOMAIN", "")
	t.Setenv("CASEDESK_AUTH_CLIENT_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CASEDESK_TOKEN")
}
