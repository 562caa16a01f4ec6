package revocation

import (
	"context"
	"time"
)

// List tracks revoked tokens two ways: individual jtis from single logout,
// and a per-subject cutoff from logout-all. A token is dead if its jti is
// listed or it was issued at or before its subject's cutoff.
type List interface {
	// RevokeToken blacklists one jti until its natural expiry.
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether the jti is blacklisted.
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeSubject invalidates every token the subject holds that was
	// issued at or before the cutoff.
	RevokeSubject(ctx context.Context, subject string, cutoff time.Time) error
	// SubjectCutoff returns the subject's revocation cutoff, or the zero
	// time when the subject never logged out everywhere.
	SubjectCutoff(ctx context.Context, subject string) (time.Time, error)
}
