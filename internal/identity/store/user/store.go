package user

import (
	"context"

	"github.com/google/uuid"

	"voxid/internal/identity/models"
)

// Store persists permanent identities.
//
// Error contract:
// - Create returns sentinel.ErrConflict when the email is taken. The check
//   is atomic with the insert (lock or unique index), so two racing
//   registrations cannot both pass.
// - Find* and Update return sentinel.ErrNotFound for missing records.
// - Update returns sentinel.ErrConflict when the new email belongs to
//   another identity.
type Store interface {
	Create(ctx context.Context, u models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	Update(ctx context.Context, u models.User) error
}
