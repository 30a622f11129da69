package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"zolo-auth/internal/auth/models"
	"zolo-auth/pkg/platform/sentinel"
)

// Schema is the DDL for the accounts table. The unique index on email is the
// uniqueness enforcement point: concurrent signups race at the index, not at
// an application-level read.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 BIGSERIAL PRIMARY KEY,
	email              TEXT NOT NULL,
	password_hash      TEXT NOT NULL,
	full_name          TEXT NOT NULL,
	company            TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active          BOOLEAN NOT NULL DEFAULT TRUE,
	email_verified     BOOLEAN NOT NULL DEFAULT FALSE,
	verification_token TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);
`

const userColumns = `id, email, password_hash, full_name, company, phone, created_at, is_active, email_verified, verification_token`

// PostgresStore persists accounts in PostgreSQL. This store is pure I/O —
// validation and error shaping belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the users table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, company, phone, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, is_active
	`
	err := s.db.QueryRowContext(ctx, query,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.Company,
		u.Phone,
		u.VerificationToken,
	).Scan(&u.ID, &u.CreatedAt, &u.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// UpdateProfile merges only the supplied fields. COALESCE keeps the stored
// value when the corresponding parameter is NULL, so absent fields are never
// implicitly blanked. Email and created_at are not touched.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (*models.User, error) {
	query := `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			company   = COALESCE($3, company),
			phone     = COALESCE($4, phone)
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id,
		nullableString(patch.FullName),
		nullableString(patch.Company),
		nullableString(patch.Phone),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByVerificationToken(ctx context.Context, tok string) (*models.User, error) {
	if tok == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, tok))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by verification token: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, verification_token = '' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Company,
		&u.Phone,
		&u.CreatedAt,
		&u.IsActive,
		&u.EmailVerified,
		&u.VerificationToken,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
