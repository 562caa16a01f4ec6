package pending

import (
	"context"
	"time"

	"voxid/internal/identity/models"
)

// Store holds registration applicants between OTP issue and redemption.
//
// Error contract:
// - Find returns sentinel.ErrNotFound when no applicant exists for the email.
// - Save is an upsert: re-registering before completion replaces the earlier
//   applicant, so at most one record exists per email.
type Store interface {
	Save(ctx context.Context, p models.PendingApplicant) error
	Find(ctx context.Context, email string) (models.PendingApplicant, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
