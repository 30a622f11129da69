package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"zolo-auth/internal/auth/service"
	"zolo-auth/internal/auth/store/lockout"
	"zolo-auth/internal/auth/store/revocation"
	"zolo-auth/internal/auth/store/user"
	"zolo-auth/internal/auth/token"
	"zolo-auth/internal/platform/config"
	"zolo-auth/internal/transport/http/shared"
)

// HandlerSuite runs the auth endpoints end to end over httptest with
// in-memory stores, so the wire contract is tested exactly as clients see it.
type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	tokens *token.Service
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rev := revocation.NewMemory()
	s.tokens = token.NewService("test-signing-key", time.Hour, token.WithRevocationList(rev))

	svc := service.New(
		user.NewMemory(),
		lockout.NewMemory(),
		rev,
		s.tokens,
		config.LockoutConfig{Threshold: 3, Window: 15 * time.Minute},
		logger,
	)

	h := New(svc, token.NewMiddlewareAdapter(s.tokens), logger)
	router := chi.NewRouter()
	h.Register(router)
	s.server = httptest.NewServer(router)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) post(path string, body any, headers map[string]string) *http.Response {
	buf, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(buf))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) get(path string, headers map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Company  string `json:"company"`
		IsActive bool   `json:"is_active"`
	} `json:"user"`
}

func (s *HandlerSuite) signup(email string) tokenResponse {
	resp := s.post("/api/auth/signup", map[string]string{
		"email":     email,
		"password":  "correct-horse",
		"full_name": "Ada Lovelace",
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body tokenResponse
	s.decode(resp, &body)
	return body
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *HandlerSuite) TestSignup() {
	s.Run("valid signup returns 200 with token and user", func() {
		body := s.signup("ada@example.com")
		s.NotEmpty(body.AccessToken)
		s.Equal("bearer", body.TokenType)
		s.Equal("ada@example.com", body.User.Email)
		s.NotZero(body.User.ID)
	})

	s.Run("duplicate email returns 400 with detail", func() {
		s.signup("dup@example.com")
		resp := s.post("/api/auth/signup", map[string]string{
			"email":     "dup@example.com",
			"password":  "correct-horse",
			"full_name": "Copy Cat",
		}, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)

		var body shared.ErrorBody
		s.decode(resp, &body)
		s.Equal("Email already registered", body.Detail)
	})

	s.Run("validation failures list fields", func() {
		resp := s.post("/api/auth/signup", map[string]string{
			"email":    "not-an-email",
			"password": "short",
		}, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)

		var body shared.ErrorBody
		s.decode(resp, &body)
		s.Contains(body.Errors, "email")
		s.Contains(body.Errors, "password")
		s.Contains(body.Errors, "full_name")
	})

	s.Run("malformed body returns 400", func() {
		resp, err := s.server.Client().Post(
			s.server.URL+"/api/auth/signup", "application/json",
			bytes.NewReader([]byte("{not json")),
		)
		s.Require().NoError(err)
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestLogin() {
	s.signup("ada@example.com")

	s.Run("valid credentials return 200", func() {
		resp := s.post("/api/auth/login", map[string]string{
			"email":    "ada@example.com",
			"password": "correct-horse",
		}, nil)
		s.Equal(http.StatusOK, resp.StatusCode)

		var body tokenResponse
		s.decode(resp, &body)
		s.NotEmpty(body.AccessToken)
	})

	s.Run("bad credentials return 401 with the shared detail", func() {
		resp := s.post("/api/auth/login", map[string]string{
			"email":    "ada@example.com",
			"password": "wrong",
		}, nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)

		var body shared.ErrorBody
		s.decode(resp, &body)
		s.Equal("Incorrect email or password", body.Detail)
	})

	s.Run("repeated failures return 429", func() {
		for i := 0; i < 3; i++ {
			resp := s.post("/api/auth/login", map[string]string{
				"email":    "locked@example.com",
				"password": "wrong",
			}, nil)
			resp.Body.Close()
		}

		resp := s.post("/api/auth/login", map[string]string{
			"email":    "locked@example.com",
			"password": "wrong",
		}, nil)
		defer resp.Body.Close()
		s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestMe() {
	body := s.signup("ada@example.com")

	s.Run("returns the authenticated account", func() {
		resp := s.get("/api/auth/me", bearer(body.AccessToken))
		s.Equal(http.StatusOK, resp.StatusCode)

		var me map[string]any
		s.decode(resp, &me)
		s.Equal("ada@example.com", me["email"])
		s.NotContains(me, "password_hash")
	})

	s.Run("missing header returns 401", func() {
		resp := s.get("/api/auth/me", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)

		var errBody shared.ErrorBody
		s.decode(resp, &errBody)
		s.Equal("Authorization header required", errBody.Detail)
	})

	s.Run("garbage token returns 401", func() {
		resp := s.get("/api/auth/me", bearer("garbage"))
		s.Equal(http.StatusUnauthorized, resp.StatusCode)

		var errBody shared.ErrorBody
		s.decode(resp, &errBody)
		s.Equal("Invalid or expired token", errBody.Detail)
	})
}

func (s *HandlerSuite) TestUpdateProfile() {
	body := s.signup("ada@example.com")

	req, err := http.NewRequest(http.MethodPut, s.server.URL+"/api/auth/profile",
		bytes.NewReader([]byte(`{"company":"Analytical Engines Ltd"}`)))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var updated map[string]any
	s.decode(resp, &updated)
	s.Equal("Analytical Engines Ltd", updated["company"])
	s.Equal("Ada Lovelace", updated["full_name"], "absent fields keep their values")
}

func (s *HandlerSuite) TestLogout() {
	body := s.signup("ada@example.com")

	resp := s.post("/api/auth/logout", struct{}{}, bearer(body.AccessToken))
	s.Equal(http.StatusOK, resp.StatusCode)

	var msg map[string]string
	s.decode(resp, &msg)
	s.Equal("Successfully logged out", msg["message"])

	// The token is revoked server-side; reuse is rejected.
	resp = s.get("/api/auth/me", bearer(body.AccessToken))
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestVerifyEmail() {
	s.Run("unknown token returns 400", func() {
		resp := s.get("/api/auth/verify-email?token=bogus", nil)
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("missing token returns 400", func() {
		resp := s.get("/api/auth/verify-email", nil)
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}
