// Package auth provides bearer credentials for the case API. It implements
// a simple interface with multiple providers following the "deep modules"
// principle - simple interface, complex implementation hidden.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrNotAuthenticated indicates no usable credential is available; the
// caller has to run the login flow before issuing API requests.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenProvider defines the interface for obtaining an access token for the
// case API. Tokens may be short-lived: callers must request one before every
// API call rather than holding on to the returned value.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticProvider serves a fixed token, typically from the CASEDESK_TOKEN
// environment variable. Useful for service credentials and testing.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider around a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// Token returns the configured token.
func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNotAuthenticated
	}
	return p.token, nil
}

// DeviceAuthorization holds the user-facing half of a pending device login.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// DeviceFlowProvider obtains tokens via the OAuth 2.0 device-authorization
// grant against the configured identity domain. The token is cached and
// served until shortly before expiry; access is serialized so concurrent
// API calls share one credential.
type DeviceFlowProvider struct {
	domain   string
	clientID string
	audience string
	client   *http.Client

	mu          sync.Mutex
	accessToken string
	expiry      time.Time
}

// NewDeviceFlowProvider creates a device-login provider for the given
// identity domain and client.
func NewDeviceFlowProvider(domain, clientID, audience string) *DeviceFlowProvider {
	return &DeviceFlowProvider{
		domain:   strings.TrimRight(domain, "/"),
		clientID: clientID,
		audience: audience,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the cached access token. ErrNotAuthenticated is returned
// when no login has completed or the token has expired; the session is then
// unrecoverable without a fresh Begin/Wait cycle.
func (p *DeviceFlowProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken == "" || time.Now().After(p.expiry) {
		return "", ErrNotAuthenticated
	}
	return p.accessToken, nil
}

// Forget drops the cached token.
func (p *DeviceFlowProvider) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessToken = ""
	p.expiry = time.Time{}
}

// Begin starts a device login and returns the code the user has to confirm
// in a browser.
func (p *DeviceFlowProvider) Begin(ctx context.Context) (*DeviceAuthorization, error) {
	form := url.Values{
		"client_id": {p.clientID},
		"scope":     {"openid profile email"},
	}
	if p.audience != "" {
		form.Set("audience", p.audience)
	}

	var auth DeviceAuthorization
	if err := p.postForm(ctx, p.domain+"/oauth/device/code", form, &auth); err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	if auth.Interval <= 0 {
		auth.Interval = 5
	}
	return &auth, nil
}

// Wait polls the token endpoint until the user confirms the device code,
// the code expires, or ctx is canceled. On success the token is cached for
// subsequent Token calls.
func (p *DeviceFlowProvider) Wait(ctx context.Context, auth *DeviceAuthorization) error {
	interval := time.Duration(auth.Interval) * time.Second
	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if auth.ExpiresIn > 0 && time.Now().After(deadline) {
			return errors.New("device code expired before confirmation")
		}

		var resp struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
			Error       string `json:"error"`
		}
		form := url.Values{
			"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
			"device_code": {auth.DeviceCode},
			"client_id":   {p.clientID},
		}
		if err := p.postForm(ctx, p.domain+"/oauth/token", form, &resp); err != nil {
			return fmt.Errorf("token poll: %w", err)
		}

		switch resp.Error {
		case "":
			p.mu.Lock()
			p.accessToken = resp.AccessToken
			// Renew slightly early so in-flight requests never carry a
			// token that expires mid-call.
			p.expiry = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - 30*time.Second)
			p.mu.Unlock()
			return nil
		case "authorization_pending":
			// Keep polling.
		case "slow_down":
			interval += 5 * time.Second
		case "expired_token":
			return errors.New("device code expired before confirmation")
		case "access_denied":
			return errors.New("login was denied")
		default:
			return fmt.Errorf("token poll failed: %s", resp.Error)
		}
	}
}

// postForm issues a form POST and decodes the JSON response. OAuth error
// payloads come back with non-2xx statuses and are decoded all the same.
func (p *DeviceFlowProvider) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", res.StatusCode, err)
	}
	return nil
}
