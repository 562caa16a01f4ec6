package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"voxid/pkg/platform/sentinel"
)

// PostgresStore persists issued codes in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE otp_codes (
//	    id         UUID PRIMARY KEY,
//	    email      TEXT NOT NULL,
//	    code       TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    used       BOOLEAN NOT NULL DEFAULT FALSE,
//	    UNIQUE (email, code)
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed OTP store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO otp_codes (id, email, code, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email, code) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			used = EXCLUDED.used
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Email, rec.Code, rec.CreatedAt, rec.ExpiresAt, rec.Used)
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, email, code string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, code, created_at, expires_at, used FROM otp_codes WHERE email = $1 AND code = $2`,
		email, code,
	).Scan(&rec.ID, &rec.Email, &rec.Code, &rec.CreatedAt, &rec.ExpiresAt, &rec.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("otp record not found: %w", sentinel.ErrNotFound)
		}
		return Record{}, fmt.Errorf("find otp: %w", err)
	}
	return rec, nil
}

// MarkUsed relies on the conditional UPDATE for atomicity: only one of two
// racing verifications flips the flag.
func (s *PostgresStore) MarkUsed(ctx context.Context, email, code string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE otp_codes SET used = TRUE WHERE email = $1 AND code = $2 AND used = FALSE`,
		email, code)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing updated: either the record is missing or already consumed.
	if _, err := s.Find(ctx, email, code); err != nil {
		return err
	}
	return fmt.Errorf("otp %s already consumed: %w", code, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStore) Delete(ctx context.Context, email, code string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE email = $1 AND code = $2`, email, code)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("otp record not found: %w", sentinel.ErrNotFound)
	}
	return nil
}
