// Package e2e drives the running service over HTTP with Gherkin scenarios.
// Point ZOLO_E2E_BASE_URL at a started server before running.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries per-scenario state: the last response, the active
// bearer token and the credentials minted for this scenario.
type TestContext struct {
	baseURL string
	client  *http.Client

	lastStatus int
	lastBody   map[string]interface{}

	email       string
	password    string
	accessToken string
}

func NewTestContext() *TestContext {
	base := os.Getenv("ZOLO_E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8000"
	}
	return &TestContext{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Reset clears scenario state and mints a fresh unique identity so scenarios
// never collide on the unique email constraint.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.accessToken = ""
	tc.email = fmt.Sprintf("e2e-%d-%04d@example.com", time.Now().UnixNano(), rand.Intn(10000))
	tc.password = "Str0ng!pw-e2e"
}

func (tc *TestContext) Email() string    { return tc.email }
func (tc *TestContext) Password() string { return tc.password }

func (tc *TestContext) AccessToken() string         { return tc.accessToken }
func (tc *TestContext) SetAccessToken(token string) { tc.accessToken = token }

func (tc *TestContext) do(method, path string, body interface{}, headers map[string]string) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	_ = json.NewDecoder(resp.Body).Decode(&tc.lastBody)
	return nil
}

// POST sends a JSON body.
func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body, nil)
}

// POSTWithHeaders sends a JSON body with extra headers.
func (tc *TestContext) POSTWithHeaders(path string, body interface{}, headers map[string]string) error {
	return tc.do(http.MethodPost, path, body, headers)
}

// PUT sends a JSON body.
func (tc *TestContext) PUT(path string, body interface{}, headers map[string]string) error {
	return tc.do(http.MethodPut, path, body, headers)
}

// GET sends a request with optional headers.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// AuthHeader returns the bearer header for the saved token.
func (tc *TestContext) AuthHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + tc.accessToken}
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// GetResponseField digs a dotted path out of the last JSON response body.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no response body recorded")
	}

	var cur interface{} = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("field %q not present in response", field)
		}
	}
	return cur, nil
}
