package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Profile is the signed-in user's identity as reported by the identity
// provider's userinfo endpoint.
type Profile struct {
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"picture"`
}

// interactive is implemented by providers that need a user-confirmed login
// flow before Token starts succeeding.
type interactive interface {
	Begin(ctx context.Context) (*DeviceAuthorization, error)
	Wait(ctx context.Context, auth *DeviceAuthorization) error
}

// forgetter is implemented by providers that cache credentials.
type forgetter interface {
	Forget()
}

// Session tracks authentication state and the user profile on top of a
// TokenProvider. It is the single authentication collaborator the rest of
// the application talks to.
type Session struct {
	provider    TokenProvider
	userinfoURL string
	client      *http.Client

	mu            sync.Mutex
	authenticated bool
	loading       bool
	profile       Profile
}

// NewSession wraps a provider. domain is the identity provider host used
// for the userinfo lookup; pass "" to skip profile resolution (static
// tokens carry no session).
func NewSession(provider TokenProvider, domain string) *Session {
	s := &Session{
		provider: provider,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	if domain != "" {
		s.userinfoURL = strings.TrimRight(domain, "/") + "/userinfo"
	}
	return s
}

// IsAuthenticated reports whether a login has completed.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether a login is currently in progress.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Profile returns the signed-in user's profile. Zero value until Login
// completes.
func (s *Session) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Token obtains a fresh access token from the underlying provider. Called
// before every API request; the session never hands out stale copies.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.provider.Token(ctx)
}

// Login establishes the session. When the provider requires a device
// confirmation, notify is invoked once with the verification URL and user
// code so the caller can surface them; notify may be nil. Safe to call
// again after Logout.
func (s *Session) Login(ctx context.Context, notify func(verificationURL, userCode string)) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return fmt.Errorf("login already in progress")
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if _, err := s.provider.Token(ctx); err != nil {
		ip, ok := s.provider.(interactive)
		if !ok {
			return err
		}
		auth, err := ip.Begin(ctx)
		if err != nil {
			return err
		}
		if notify != nil {
			uri := auth.VerificationURIComplete
			if uri == "" {
				uri = auth.VerificationURI
			}
			notify(uri, auth.UserCode)
		}
		if err := ip.Wait(ctx, auth); err != nil {
			return err
		}
	}

	profile, err := s.fetchProfile(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.authenticated = true
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// Logout clears the session and any cached credential.
func (s *Session) Logout() {
	s.mu.Lock()
	s.authenticated = false
	s.profile = Profile{}
	s.mu.Unlock()

	if f, ok := s.provider.(forgetter); ok {
		f.Forget()
	}
}

func (s *Session) fetchProfile(ctx context.Context) (Profile, error) {
	if s.userinfoURL == "" {
		return Profile{}, nil
	}

	token, err := s.provider.Token(ctx)
	if err != nil {
		return Profile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := s.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo: HTTP %d", res.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("userinfo: %w", err)
	}
	return profile, nil
}
