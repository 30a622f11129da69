package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
)

// Status is the tri-state connectivity signal exposed to UIs.
type Status string

const (
	StatusChecking     Status = "checking"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Session mirrors authentication state across runs: a token and profile
// cached locally, refreshed authoritatively from the server whenever it is
// reachable. One Session per client; callers serialize operations, but
// logout's local clear is unconditional so it wins any race with a refetch.
type Session struct {
	client *Client
	cache  *Cache
	logger *slog.Logger

	mu     sync.Mutex
	status Status
	token  string
	user   *User
}

func NewSession(client *Client, cache *Cache, logger *slog.Logger) *Session {
	return &Session{
		client: client,
		cache:  cache,
		logger: logger,
		status: StatusChecking,
	}
}

// Init restores the session on process start: probe connectivity, hydrate
// from the local cache, then refetch the profile authoritatively when both a
// token and a connection are available. An invalid or expired token clears
// the cache; an unreachable server keeps the cached profile and reports
// disconnected.
func (s *Session) Init(ctx context.Context) {
	s.mu.Lock()
	s.status = StatusChecking
	s.mu.Unlock()

	connected := s.client.CheckConnection(ctx)

	s.mu.Lock()
	if connected {
		s.status = StatusConnected
	} else {
		s.status = StatusDisconnected
	}
	token, user, ok := s.cache.Load()
	if ok {
		s.token = token
		s.user = user
	}
	s.mu.Unlock()

	if !ok || !connected {
		return
	}

	fresh, err := s.client.Me(ctx, token)
	if err != nil {
		s.handleRefetchFailure(err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		// A logout raced the refetch; its clear wins.
		return
	}
	s.user = fresh
	if err := s.cache.Save(token, fresh); err != nil {
		s.logger.Warn("persisting session cache failed", "error", err)
	}
}

func (s *Session) handleRefetchFailure(err error) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusUnauthorized {
		// The cached token is no longer valid.
		s.mu.Lock()
		defer s.mu.Unlock()
		s.token = ""
		s.user = nil
		s.cache.Clear()
		return
	}

	s.logger.Warn("profile refetch failed, keeping cached profile", "error", err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusDisconnected
}

// Login authenticates and populates the session and cache.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.adopt(resp)
	return resp.User, nil
}

// Signup registers an account and signs the session in.
func (s *Session) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	resp, err := s.client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	s.adopt(resp)
	return resp.User, nil
}

func (s *Session) adopt(resp *TokenResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = resp.AccessToken
	s.user = resp.User
	s.status = StatusConnected
	if err := s.cache.Save(resp.AccessToken, resp.User); err != nil {
		s.logger.Warn("persisting session cache failed", "error", err)
	}
}

// Logout clears local state unconditionally and best-effort revokes the
// token server-side. It never fails: an unreachable server still results in
// an anonymous local session.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.user = nil
	s.cache.Clear()
	s.mu.Unlock()

	if token == "" {
		return
	}
	if err := s.client.Logout(ctx, token); err != nil {
		s.logger.Warn("server-side logout failed, local session cleared anyway", "error", err)
	}
}

// UpdateProfile applies a partial update and replaces the cached profile.
// The email is immutable across this transition.
func (s *Session) UpdateProfile(ctx context.Context, req ProfileUpdate) (*User, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil, &ServerError{StatusCode: http.StatusUnauthorized, Detail: "Authorization header required"}
	}

	fresh, err := s.client.UpdateProfile(ctx, token, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return fresh, nil
	}
	s.user = fresh
	if err := s.cache.Save(token, fresh); err != nil {
		s.logger.Warn("persisting session cache failed", "error", err)
	}
	return fresh, nil
}

// RefreshUser refetches the profile authoritatively.
func (s *Session) RefreshUser(ctx context.Context) (*User, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil, &ServerError{StatusCode: http.StatusUnauthorized, Detail: "Authorization header required"}
	}

	fresh, err := s.client.Me(ctx, token)
	if err != nil {
		s.handleRefetchFailure(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return fresh, nil
	}
	s.user = fresh
	if err := s.cache.Save(token, fresh); err != nil {
		s.logger.Warn("persisting session cache failed", "error", err)
	}
	return fresh, nil
}

// RetryConnection re-probes the server and updates the status.
func (s *Session) RetryConnection(ctx context.Context) Status {
	s.mu.Lock()
	s.status = StatusChecking
	s.mu.Unlock()

	connected := s.client.CheckConnection(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if connected {
		s.status = StatusConnected
	} else {
		s.status = StatusDisconnected
	}
	return s.status
}

// SubmitContact sends a contact form submission; no authentication needed.
func (s *Session) SubmitContact(ctx context.Context, req ContactRequest) error {
	return s.client.SubmitContact(ctx, req)
}

// Status reports the last observed connectivity state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentUser returns the locally known profile, which may be a cached copy
// when the server is unreachable. Nil when anonymous.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token returns the current bearer token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether the session holds a token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
