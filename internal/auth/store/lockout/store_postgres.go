package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Schema is the DDL for the auth lockout table.
const Schema = `
CREATE TABLE IF NOT EXISTS auth_lockouts (
	identifier      TEXT PRIMARY KEY,
	failure_count   INTEGER NOT NULL DEFAULT 0,
	last_failure_at TIMESTAMPTZ NOT NULL,
	locked_until    TIMESTAMPTZ
);
`

// PostgresStore persists lockout records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the lockout table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure auth_lockouts schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, identifier string) (*Record, error) {
	query := `
		SELECT identifier, failure_count, last_failure_at, locked_until
		FROM auth_lockouts
		WHERE identifier = $1
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	return rec, nil
}

// RecordFailure atomically increments the failure count and returns the
// updated record. A single INSERT ... ON CONFLICT ... RETURNING prevents
// TOCTOU races where concurrent requests could bypass the lock threshold.
// Counts whose last failure predates staleBefore restart at 1.
func (s *PostgresStore) RecordFailure(ctx context.Context, identifier string, now, staleBefore time.Time) (*Record, error) {
	query := `
		INSERT INTO auth_lockouts (identifier, failure_count, last_failure_at, locked_until)
		VALUES ($1, 1, $2, NULL)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = CASE
				WHEN auth_lockouts.last_failure_at < $3 THEN 1
				ELSE auth_lockouts.failure_count + 1
			END,
			last_failure_at = $2
		RETURNING identifier, failure_count, last_failure_at, locked_until
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, identifier, now, staleBefore))
	if err != nil {
		return nil, fmt.Errorf("record auth failure: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ApplyLock(ctx context.Context, identifier string, until time.Time) error {
	query := `
		INSERT INTO auth_lockouts (identifier, failure_count, last_failure_at, locked_until)
		VALUES ($1, 0, now(), $2)
		ON CONFLICT (identifier) DO UPDATE SET locked_until = $2
	`
	if _, err := s.db.ExecContext(ctx, query, identifier, until); err != nil {
		return fmt.Errorf("apply auth lock: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_lockouts WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var lockedUntil sql.NullTime
	if err := row.Scan(&rec.Identifier, &rec.FailureCount, &rec.LastFailureAt, &lockedUntil); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		rec.LockedUntil = &lockedUntil.Time
	}
	return &rec, nil
}
