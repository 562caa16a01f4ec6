package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	jwttoken "voxid/internal/jwt_token"
	"voxid/pkg/requestcontext"
)

// TokenValidator decides whether a presented token is still alive. The
// session manager implements it with the full two-lookup revocation check.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*jwttoken.Claims, error)
}

// RequireAuth gates a route behind a live bearer token. On success the
// subject, raw token, and jti land in the request context for the services.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - dead token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "invalid, expired, or revoked token")
				return
			}

			ctx = requestcontext.WithSubject(ctx, claims.Subject)
			ctx = requestcontext.WithBearerToken(ctx, token)
			ctx = requestcontext.WithTokenID(ctx, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
