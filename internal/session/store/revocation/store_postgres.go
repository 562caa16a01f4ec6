package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresList persists revocations in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE token_revocations (
//	    jti        TEXT PRIMARY KEY,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE subject_revocations (
//	    subject TEXT PRIMARY KEY,
//	    cutoff  TIMESTAMPTZ NOT NULL
//	);
type PostgresList struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresListOption configures a PostgresList instance.
type PostgresListOption func(*PostgresList)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresListOption {
	return func(l *PostgresList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewPostgresList constructs a PostgreSQL-backed revocation list.
func NewPostgresList(db *sql.DB, opts ...PostgresListOption) *PostgresList {
	l := &PostgresList{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *PostgresList) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	expiresAt := l.clock().Add(ttl)
	query := `
		INSERT INTO token_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	_, err := l.db.ExecContext(ctx, query, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (l *PostgresList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var expiresAt time.Time
	err := l.db.QueryRowContext(ctx, `SELECT expires_at FROM token_revocations WHERE jti = $1`, jti).Scan(&expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	if l.clock().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

func (l *PostgresList) RevokeSubject(ctx context.Context, subject string, cutoff time.Time) error {
	query := `
		INSERT INTO subject_revocations (subject, cutoff)
		VALUES ($1, $2)
		ON CONFLICT (subject) DO UPDATE SET
			cutoff = GREATEST(subject_revocations.cutoff, EXCLUDED.cutoff)
	`
	_, err := l.db.ExecContext(ctx, query, subject, cutoff)
	if err != nil {
		return fmt.Errorf("revoke subject tokens: %w", err)
	}
	return nil
}

func (l *PostgresList) SubjectCutoff(ctx context.Context, subject string) (time.Time, error) {
	var cutoff time.Time
	err := l.db.QueryRowContext(ctx, `SELECT cutoff FROM subject_revocations WHERE subject = $1`, subject).Scan(&cutoff)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("read subject cutoff: %w", err)
	}
	return cutoff, nil
}
