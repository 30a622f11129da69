package store

import (
	"context"
	"database/sql"
	"fmt"

	"zolo-auth/internal/contact/models"
)

// Schema creates the contact_submissions table.
const Schema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    subject    TEXT NOT NULL,
    message    TEXT NOT NULL,
    phone      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists submissions in Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure contact schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	const q = `
INSERT INTO contact_submissions (name, email, subject, message, phone)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, q,
		sub.Name, sub.Email, sub.Subject, sub.Message, sub.Phone,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*models.Submission, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM contact_submissions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact submissions: %w", err)
	}

	const q = `
SELECT id, name, email, subject, message, phone, created_at
FROM contact_submissions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.Message, &sub.Phone, &sub.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contact submission: %w", err)
		}
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	return out, total, nil
}
