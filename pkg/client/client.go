// Package client is the Go consumer of the zolo-auth HTTP API. It bundles a
// connectivity-guarded HTTP wrapper, a local credential cache and a session
// that mirrors authentication state between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// User mirrors the server's account object. The secret hash is never on the
// wire, so it has no field here.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// TokenResponse is the signup/login success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// SignupRequest is the signup body.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ProfileUpdate is the profile body. Nil fields are omitted so the server
// keeps their previous values.
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Company  *string `json:"company,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// ContactRequest is the contact form body.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Phone   string `json:"phone,omitempty"`
}

// NetworkError is a transport or DNS failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a per-attempt deadline that elapsed before a response.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("request timed out: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Detail and Fields carry the server's
// error envelope when it sent one.
type ServerError struct {
	StatusCode int
	Detail     string
	Fields     map[string]string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client calls the zolo-auth API with retries and failure classification.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	attempts       int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	probeTimeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryPolicy overrides attempt count and first backoff interval. The
// interval doubles after each failed attempt.
func WithRetryPolicy(attempts int, backoffBase time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoffBase = backoffBase
	}
}

// WithAttemptTimeout overrides the per-attempt deadline.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.attemptTimeout = d }
}

func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		logger:         logger,
		attempts:       3,
		attemptTimeout: 10 * time.Second,
		backoffBase:    time.Second,
		probeTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckConnection probes the server's health endpoint. It is side-effect
// free and bounded by a short timeout, so UIs can call it freely.
func (c *Client) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// do performs one API call with retries. 4xx responses are deterministic
// rejections and returned immediately; 5xx, timeouts and transport failures
// are retried with doubling backoff until the attempt cap, and the last
// classified error is surfaced.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	backoff := c.backoffBase

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return &NetworkError{Err: ctx.Err()}
			}
		}

		err := c.attempt(ctx, method, path, token, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var serverErr *ServerError
		if errors.As(err, &serverErr) && serverErr.StatusCode < http.StatusInternalServerError {
			return err
		}

		c.logger.Warn("request attempt failed",
			"method", method, "path", path, "attempt", attempt, "error", err)
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path, token string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Err: err}
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		serverErr := &ServerError{StatusCode: resp.StatusCode}
		var envelope struct {
			Detail string            `json:"detail"`
			Errors map[string]string `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			serverErr.Detail = envelope.Detail
			serverErr.Fields = envelope.Errors
		}
		return serverErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the authenticated profile.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile merges the provided fields into the profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, req ProfileUpdate) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/api/auth/profile", token, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, struct{}{}, nil)
}

// SubmitContact sends a contact form submission.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) error {
	return c.do(ctx, http.MethodPost, "/api/contact", "", req, nil)
}
