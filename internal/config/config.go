// Package config loads environment configuration for the case portal
// client. All settings come from CASEDESK_* environment variables, mirroring
// the deployment story of the web portal this client talks to the same API
// as.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// APIPrefix is the versioned path prefix of the remote case API. Must match
// the API server.
const APIPrefix = "/api/v2"

// Config carries everything the client needs to reach the API and the
// identity provider.
type Config struct {
	// APIBaseURL is the base URL of the case API deployment,
	// e.g. "https://cases-api.example.com".
	APIBaseURL string

	// PortalURL is the web portal used for open-in-browser handoff.
	// Optional; the keybinding is disabled when unset.
	PortalURL string

	// Token is a static bearer token. When set, the device login flow is
	// skipped entirely.
	Token string

	// Device login settings (ignored when Token is set).
	AuthDomain   string
	AuthClientID string
	AuthAudience string

	// DebugLog is a file path for structured debug logging. Empty disables
	// logging; the TUI owns stdout.
	DebugLog string
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CASEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"api_base_url", "portal_url", "token",
		"auth_domain", "auth_client_id", "auth_audience",
		"debug_log",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := Config{
		APIBaseURL:   strings.TrimRight(v.GetString("api_base_url"), "/"),
		PortalURL:    strings.TrimRight(v.GetString("portal_url"), "/"),
		Token:        v.GetString("token"),
		AuthDomain:   v.GetString("auth_domain"),
		AuthClientID: v.GetString("auth_client_id"),
		AuthAudience: v.GetString("auth_audience"),
		DebugLog:     v.GetString("debug_log"),
	}

	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("CASEDESK_API_BASE_URL is required")
	}
	if cfg.Token == "" {
		if cfg.AuthDomain == "" || cfg.AuthClientID == "" {
			return Config{}, errors.New(
				"set CASEDESK_TOKEN for a static token, or CASEDESK_AUTH_DOMAIN and CASEDESK_AUTH_CLIENT_ID for device login")
		}
	}

	return cfg, nil
}
