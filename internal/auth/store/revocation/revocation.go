// Package revocation implements the token revocation list consulted during
// bearer token verification. Logout adds the presented token's ID with a TTL
// matching its remaining validity, so entries expire on their own once the
// token would have died naturally anyway.
package revocation

import (
	"context"
	"sync"
	"time"
)

// List records revoked token IDs until their natural expiry.
type List interface {
	// Revoke marks a token ID as revoked for the given TTL. A zero or
	// negative TTL is a no-op: the token is already dead.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether a token ID is on the list. Absent or
	// expired entries count as not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryList is the single-process List implementation. Suitable for
// development and tests; deployments with more than one instance need the
// Redis-backed list to share revocation state.
type MemoryList struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemory() *MemoryList {
	return &MemoryList{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[jti] = l.now().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	deadline, ok := l.expires[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.now().After(deadline) {
		l.mu.Lock()
		delete(l.expires, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
