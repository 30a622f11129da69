// Package user persists account records. Two implementations share the same
// contract: an in-memory map used by tests and development, and Postgres for
// production. Uniqueness of the email identity is enforced by the store
// itself (unique index in Postgres, mutex-guarded check in memory), so a
// duplicate signup surfaces as sentinel.ErrConflict regardless of timing.
package user

import (
	"context"

	"zolo-auth/internal/auth/models"
)

// Store is the durable mapping from account identity to account record.
type Store interface {
	// Create inserts a new account and fills in its assigned ID and
	// creation timestamp. Returns sentinel.ErrConflict when the email is
	// already taken.
	Create(ctx context.Context, user *models.User) error

	// FindByEmail looks up an account by its identity (case-sensitive).
	// Returns sentinel.ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks up an account by its numeric ID.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateProfile merges the non-nil fields of patch into the account.
	// Email and CreatedAt are immutable and not part of the patch.
	UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (*models.User, error)

	// FindByVerificationToken resolves a pending email verification token.
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)

	// MarkVerified flags the account's email as confirmed and clears the
	// verification token.
	MarkVerified(ctx context.Context, id int64) error
}
