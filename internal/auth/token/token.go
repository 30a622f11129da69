// Package token mints and validates the signed bearer tokens that bind a
// session to an account.
package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "zolo-auth/pkg/domain-errors"
)

// AccessTokenClaims represents the JWT claims for access tokens. Subject
// carries the numeric account ID; Email duplicates the identity so handlers
// can resolve the account without an extra lookup.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into an account ID.
func (c *AccessTokenClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return id, nil
}

// RevocationList answers whether a token ID has been revoked. Implementations
// live in internal/auth/store/revocation.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service handles JWT creation and validation. Claims are immutable once
// issued: there is no refresh path, a new token requires a fresh login.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	revocation RevocationList
}

// Option configures a Service.
type Option func(*Service)

// WithRevocationList wires a revocation list into verification. Without one,
// verification is purely cryptographic.
func WithRevocationList(rl RevocationList) Option {
	return func(s *Service) { s.revocation = rl }
}

// NewService constructs a token service. The signing key must come from
// configuration; there is deliberately no default.
func NewService(signingKey string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL exposes the configured validity window.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue produces a signed token for the given account, valid for the
// configured window from now.
func (s *Service) Issue(userID int64, email string) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a token string. Signature, shape, expiry and
// revocation failures all collapse into a single CodeUnauthorized error so
// callers cannot leak which sub-check failed.
func (s *Service) Validate(ctx context.Context, tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	if s.revocation != nil {
		revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
		}
		if revoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	return claims, nil
}
