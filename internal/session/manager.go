package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "voxid/pkg/domain-errors"
	"voxid/pkg/requestcontext"

	jwttoken "voxid/internal/jwt_token"
	"voxid/internal/platform/metrics"
	"voxid/internal/session/store/revocation"
)

// Manager issues bearer tokens and decides whether presented ones are still
// alive. Liveness is two checks on top of signature and expiry: the jti must
// not be blacklisted, and the token must postdate its subject's logout-all
// cutoff.
type Manager struct {
	codec   *jwttoken.Codec
	list    revocation.List
	metrics *metrics.Metrics
	logger  *slog.Logger
	ttl     time.Duration
}

// NewManager constructs a session manager.
func NewManager(codec *jwttoken.Codec, list revocation.List, m *metrics.Metrics, logger *slog.Logger, ttl time.Duration) *Manager {
	return &Manager{
		codec:   codec,
		list:    list,
		metrics: m,
		logger:  logger,
		ttl:     ttl,
	}
}

// TTL reports the lifetime issued tokens get.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a fresh token for the subject.
func (m *Manager) Issue(ctx context.Context, subject string) (string, error) {
	token, jti, err := m.codec.Generate(subject, requestcontext.Now(ctx), m.ttl)
	if err != nil {
		return "", err
	}
	m.logger.InfoContext(ctx, "token issued", "subject", subject, "jti", jti)
	return token, nil
}

// Validate checks signature, expiry, and both revocation paths. It returns
// the claims of a live token.
func (m *Manager) Validate(ctx context.Context, tokenString string) (*jwttoken.Claims, error) {
	claims, err := m.codec.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := m.list.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation check failed")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeTokenRevoked, "token has been revoked")
	}

	cutoff, err := m.list.SubjectCutoff(ctx, claims.Subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation check failed")
	}
	// iat rides the wire at jwt.TimePrecision (whole seconds), so the cutoff
	// must be compared at the same granularity: against a finer cutoff, a
	// token minted right after RevokeAll would read as predating it.
	if !cutoff.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(cutoff.Truncate(jwt.TimePrecision)) {
		return nil, dErrors.New(dErrors.CodeTokenRevoked, "token has been revoked")
	}

	return claims, nil
}

// ValidateFor is Validate plus a subject check for callers that already know
// who the token must belong to.
func (m *Manager) ValidateFor(ctx context.Context, tokenString, expectedSubject string) (*jwttoken.Claims, error) {
	claims, err := m.Validate(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != expectedSubject {
		return nil, dErrors.New(dErrors.CodeSubjectMismatch, "token does not belong to this subject")
	}
	return claims, nil
}

// Revoke blacklists the presented token for its remaining lifetime. The token
// must still be valid; a forged or expired token cannot be "logged out".
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.Validate(ctx, tokenString)
	if err != nil {
		return err
	}

	remaining := m.ttl
	if claims.ExpiresAt != nil {
		remaining = time.Until(claims.ExpiresAt.Time)
	}
	if remaining <= 0 {
		return nil
	}
	if err := m.list.RevokeToken(ctx, claims.ID, remaining); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke token")
	}
	m.metrics.TokensRevoked.Inc()
	m.logger.InfoContext(ctx, "token revoked", "subject", claims.Subject, "jti", claims.ID)
	return nil
}

// RevokeAll invalidates every outstanding token the subject holds by moving
// the subject cutoff to now. Tokens issued after this call stay valid.
func (m *Manager) RevokeAll(ctx context.Context, subject string) error {
	if err := m.list.RevokeSubject(ctx, subject, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke subject tokens")
	}
	m.metrics.TokensRevoked.Inc()
	m.logger.InfoContext(ctx, "all tokens revoked", "subject", subject)
	return nil
}
