//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"voxid/internal/identity/models"
	"voxid/internal/identity/store/user"
	"voxid/internal/voice"
	"voxid/pkg/platform/sentinel"
	"voxid/pkg/testutil/containers"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
    id                 UUID PRIMARY KEY,
    email              TEXT NOT NULL UNIQUE,
    secret_hash        TEXT NOT NULL,
    role               TEXT NOT NULL,
    active             BOOLEAN NOT NULL,
    voice_print        TEXT NOT NULL DEFAULT '',
    voice_auth_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    registered_at      TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL,
    last_login_at      TIMESTAMPTZ,
    last_logout_at     TIMESTAMPTZ
)`

type PostgresStoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())
	pool, err := pgxpool.New(context.Background(), pg.DSN)
	s.Require().NoError(err)
	s.pool = pool
	_, err = pool.Exec(context.Background(), usersSchema)
	s.Require().NoError(err)
	s.store = user.NewPostgresStore(pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE users`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) makeUser(email string) models.User {
	now := time.Now().Truncate(time.Microsecond)
	return models.User{
		ID:           uuid.New(),
		Email:        email,
		SecretHash:   "$2a$10$hash",
		Role:         "USER",
		Active:       true,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	u := s.makeUser("a@x.com")
	u.VoicePrint = voice.NewPrint([]float64{0.25, -1.5, 3})
	u.VoiceAuthEnabled = true

	s.Require().NoError(s.store.Create(ctx, u))

	got, err := s.store.FindByEmail(ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal(u.VoicePrint.Serial, got.VoicePrint.Serial)
	s.Equal([]float64{0.25, -1.5, 3}, got.VoicePrint.Vector)
	s.True(got.VoiceAuthEnabled)
	s.True(got.LastLoginAt.IsZero())

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("a@x.com", byID.Email)
}

func (s *PostgresStoreSuite) TestUniqueIndexEnforcesOneEmail() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.makeUser("a@x.com")))

	err := s.store.Create(ctx, s.makeUser("a@x.com"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateStampsAndNullableTimes() {
	ctx := context.Background()
	u := s.makeUser("a@x.com")
	s.Require().NoError(s.store.Create(ctx, u))

	loginAt := time.Now().Truncate(time.Microsecond)
	u.LastLoginAt = loginAt
	s.Require().NoError(s.store.Update(ctx, u))

	got, err := s.store.FindByEmail(ctx, "a@x.com")
	s.Require().NoError(err)
	s.True(got.LastLoginAt.Equal(loginAt))
	s.True(got.LastLogoutAt.IsZero())
}

func (s *PostgresStoreSuite) TestUpdateMissingUser() {
	err := s.store.Update(context.Background(), s.makeUser("ghost@x.com"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByEmail(context.Background(), "nobody@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
