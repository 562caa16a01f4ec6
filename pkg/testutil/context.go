package testutil

import (
	"context"
	"time"

	"voxid/pkg/requestcontext"
)

// ContextAt returns a background context with a pinned request time so
// expiry assertions stay deterministic.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

// AuthenticatedContext builds a context that looks like it passed the bearer
// middleware: subject, raw token, and jti are all populated.
func AuthenticatedContext(subject, token, jti string) context.Context {
	ctx := requestcontext.WithSubject(context.Background(), subject)
	ctx = requestcontext.WithBearerToken(ctx, token)
	return requestcontext.WithTokenID(ctx, jti)
}
