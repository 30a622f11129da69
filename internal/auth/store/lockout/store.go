// Package lockout tracks failed login attempts per identity so repeated
// guessing can be throttled. Stores are pure I/O; the lock decision (when to
// lock, for how long) belongs to the auth service.
package lockout

import (
	"context"
	"time"
)

// Record is the per-identity failure state.
type Record struct {
	Identifier    string
	FailureCount  int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// Locked reports whether the record holds an active lock at the given time.
func (r *Record) Locked(now time.Time) bool {
	return r != nil && r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Store persists lockout records.
type Store interface {
	// Get returns the record for an identifier, or nil when none exists.
	Get(ctx context.Context, identifier string) (*Record, error)

	// RecordFailure atomically increments the failure count and returns the
	// updated record. Counts older than staleBefore restart at 1, so stale
	// failures from a previous window don't accumulate forever.
	RecordFailure(ctx context.Context, identifier string, now, staleBefore time.Time) (*Record, error)

	// ApplyLock sets the lock deadline on an existing record.
	ApplyLock(ctx context.Context, identifier string, until time.Time) error

	// Clear removes the record entirely, used after a successful login.
	Clear(ctx context.Context, identifier string) error
}
