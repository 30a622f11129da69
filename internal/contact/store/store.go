// Package store persists contact form submissions.
package store

import (
	"context"

	"zolo-auth/internal/contact/models"
)

// Store is the durable record of contact submissions.
type Store interface {
	// Create inserts a submission and fills in its assigned ID and
	// creation timestamp.
	Create(ctx context.Context, sub *models.Submission) error

	// List returns a page of submissions, newest first, plus the total
	// count across all pages.
	List(ctx context.Context, limit, offset int) ([]*models.Submission, int, error)
}
