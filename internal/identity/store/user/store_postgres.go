package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"voxid/internal/identity/models"
	"voxid/internal/voice"
	"voxid/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists identities in PostgreSQL. The email unique index is
// the authority on uniqueness; the application never relies on a pre-check.
//
// Schema:
//
//	CREATE TABLE users (
//	    id                 UUID PRIMARY KEY,
//	    email              TEXT NOT NULL UNIQUE,
//	    secret_hash        TEXT NOT NULL,
//	    role               TEXT NOT NULL,
//	    active             BOOLEAN NOT NULL,
//	    voice_print        TEXT NOT NULL DEFAULT '',
//	    voice_auth_enabled BOOLEAN NOT NULL DEFAULT FALSE,
//	    registered_at      TIMESTAMPTZ NOT NULL,
//	    updated_at         TIMESTAMPTZ NOT NULL,
//	    last_login_at      TIMESTAMPTZ,
//	    last_logout_at     TIMESTAMPTZ
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, u models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, secret_hash, role, active, voice_print,
			voice_auth_enabled, registered_at, updated_at, last_login_at, last_logout_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Email, u.SecretHash, string(u.Role), u.Active, u.VoicePrint.Serial,
		u.VoiceAuthEnabled, u.RegisteredAt, u.UpdatedAt, nullableTime(u.LastLoginAt), nullableTime(u.LastLogoutAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("email %s taken: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findBy(ctx, `email = $1`, email)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.findBy(ctx, `id = $1`, id)
}

func (s *PostgresStore) findBy(ctx context.Context, where string, arg any) (models.User, error) {
	var (
		u         models.User
		role      string
		serial    string
		lastLogin *time.Time
		lastOut   *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, secret_hash, role, active, voice_print,
			voice_auth_enabled, registered_at, updated_at, last_login_at, last_logout_at
		FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.SecretHash, &role, &u.Active, &serial,
		&u.VoiceAuthEnabled, &u.RegisteredAt, &u.UpdatedAt, &lastLogin, &lastOut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}

	u.Role = models.Role(role)
	if serial != "" {
		print, err := voice.ParsePrint(serial)
		if err != nil {
			return models.User{}, fmt.Errorf("stored voice print unreadable: %w", err)
		}
		u.VoicePrint = print
	}
	if lastLogin != nil {
		u.LastLoginAt = *lastLogin
	}
	if lastOut != nil {
		u.LastLogoutAt = *lastOut
	}
	return u, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *PostgresStore) Update(ctx context.Context, u models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET email = $2, secret_hash = $3, role = $4, active = $5,
			voice_print = $6, voice_auth_enabled = $7, updated_at = $8,
			last_login_at = $9, last_logout_at = $10
		WHERE id = $1
	`, u.ID, u.Email, u.SecretHash, string(u.Role), u.Active, u.VoicePrint.Serial,
		u.VoiceAuthEnabled, u.UpdatedAt, nullableTime(u.LastLoginAt), nullableTime(u.LastLogoutAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("email %s taken: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return nil
}
