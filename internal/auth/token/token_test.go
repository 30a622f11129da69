package token

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zolo-auth/pkg/domain-errors"
)

const testSigningKey = "unit-test-signing-key"

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	svc := NewService(testSigningKey, 24*time.Hour)

	tok, err := svc.Issue(42, "a@b.com")
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	claims, err := svc.Validate(context.Background(), tok)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	// Verification is idempotent within the validity window.
	again, err := svc.Validate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, again.Subject)
	assert.Equal(t, claims.Email, again.Email)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService(testSigningKey, -time.Hour)

	tok, err := svc.Issue(1, "a@b.com")
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_WrongKey(t *testing.T) {
	issuer := NewService("key-one", time.Hour)
	verifier := NewService("key-two", time.Hour)

	tok, err := issuer.Issue(1, "a@b.com")
	require.NoError(t, err)

	_, err = verifier.Validate(context.Background(), tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_TamperedPayload(t *testing.T) {
	svc := NewService(testSigningKey, time.Hour)

	tok, err := svc.Issue(1, "a@b.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// Swap the subject for another account's while keeping the signature.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tampered := strings.Replace(string(payload), `"sub":"1"`, `"sub":"2"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = svc.Validate(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_Malformed(t *testing.T) {
	svc := NewService(testSigningKey, time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		_, err := svc.Validate(context.Background(), tok)
		assert.Error(t, err, "token %q should not validate", tok)
	}
}

type staticRevocationList struct {
	revoked map[string]bool
}

func (s *staticRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

func TestValidate_Revoked(t *testing.T) {
	rl := &staticRevocationList{revoked: map[string]bool{}}
	svc := NewService(testSigningKey, time.Hour, WithRevocationList(rl))

	tok, err := svc.Issue(7, "a@b.com")
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), tok)
	require.NoError(t, err)

	rl.revoked[claims.ID] = true

	_, err = svc.Validate(context.Background(), tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMiddlewareAdapter(t *testing.T) {
	svc := NewService(testSigningKey, time.Hour)
	adapter := NewMiddlewareAdapter(svc)

	tok, err := svc.Issue(9, "user@example.com")
	require.NoError(t, err)

	claims, err := adapter.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	_, err = adapter.Verify(context.Background(), "garbage")
	assert.Error(t, err)
}
