package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one issued one-time code. Exactly one unused, unexpired record
// should be redeemable per (email, code) pair at a time.
type Record struct {
	ID        uuid.UUID
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the record is past its expiry at the given instant.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store persists issued codes.
//
// Error contract: Find and Delete return sentinel.ErrNotFound when no record
// matches; MarkUsed additionally returns sentinel.ErrAlreadyUsed, atomically,
// so two racing verifications cannot both succeed.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Find(ctx context.Context, email, code string) (Record, error)
	MarkUsed(ctx context.Context, email, code string) error
	Delete(ctx context.Context, email, code string) error
}

// Sender is the delivery collaborator. Implementations live outside this
// subsystem; failures surface to callers as delivery_failed.
type Sender interface {
	Send(ctx context.Context, email, code string) error
	SendReset(ctx context.Context, email, code string) error
}
