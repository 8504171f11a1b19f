package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	token, err := NewStaticProvider("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = NewStaticProvider("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// identityServer fakes the OAuth device endpoints. Confirmation succeeds
// after pendingPolls polls.
func identityServer(t *testing.T, pendingPolls int32) *httptest.Server {
	t.Helper()
	var polls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-123",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://login.example/activate",
			"expires_in":       300,
			"interval":         1, // keep test polling fast
		})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", r.Form.Get("grant_type"))
		assert.Equal(t, "dev-123", r.Form.Get("device_code"))

		if atomic.AddInt32(&polls, 1) <= pendingPolls {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "granted-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer granted-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"name":       "Ada Lovelace",
			"given_name": "Ada",
			"email":      "ada@example.com",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDeviceFlow_BeginWaitToken(t *testing.T) {
	srv := identityServer(t, 2)
	p := NewDeviceFlowProvider(srv.URL, "client-id", "")

	// No token before the flow completes.
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	auth, err := p.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCD-EFGH", auth.UserCode)
	assert.Equal(t, "https://login.example/activate", auth.VerificationURI)

	auth.Interval = 0 // no real sleeping in tests
	require.NoError(t, p.Wait(context.Background(), auth))

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted-token", token)

	p.Forget()
	_, err = p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestDeviceFlow_BeginDefaultsInterval(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/device/code", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"device_code": "dev-123", "user_code": "XY"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewDeviceFlowProvider(srv.URL, "client-id", "")
	auth, err := p.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, auth.Interval, "missing interval defaults to 5s")
}

func TestDeviceFlow_AccessDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "access_denied"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewDeviceFlowProvider(srv.URL, "client-id", "")
	err := p.Wait(context.Background(), &DeviceAuthorization{DeviceCode: "dev-123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestDeviceFlow_ExpiredToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "expired_token"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewDeviceFlowProvider(srv.URL, "client-id", "")
	err := p.Wait(context.Background(), &DeviceAuthorization{DeviceCode: "dev-123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestDeviceFlow_WaitRespectsContext(t *testing.T) {
	p := NewDeviceFlowProvider("https://unreachable.example", "client-id", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, &DeviceAuthorization{DeviceCode: "dev-123", Interval: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_LoginWithDeviceFlow(t *testing.T) {
	srv := identityServer(t, 0)
	p := NewDeviceFlowProvider(srv.URL, "client-id", "")
	s := NewSession(p, srv.URL)

	assert.False(t, s.IsAuthenticated())

	var notifiedURL, notifiedCode string
	err := s.Login(context.Background(), func(url, code string) {
		notifiedURL = url
		notifiedCode = code
	})
	require.NoError(t, err)

	assert.Equal(t, "https://login.example/activate", notifiedURL)
	assert.Equal(t, "ABCD-EFGH", notifiedCode)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Ada Lovelace", s.Profile().Name)
	assert.Equal(t, "ada@example.com", s.Profile().Email)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted-token", token)
}

func TestSession_LoginWithStaticTokenSkipsPrompt(t *testing.T) {
	s := NewSession(NewStaticProvider("static"), "")

	notified := false
	err := s.Login(context.Background(), func(string, string) { notified = true })
	require.NoError(t, err)

	assert.False(t, notified, "a usable token needs no device prompt")
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, Profile{}, s.Profile(), "static sessions carry no profile")
}

func TestSession_Logout(t *testing.T) {
	srv := identityServer(t, 0)
	p := NewDeviceFlowProvider(srv.URL, "client-id", "")
	s := NewSession(p, srv.URL)
	require.NoError(t, s.Login(context.Background(), nil))

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, Profile{}, s.Profile())
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated, "logout forgets the cached token")
}
