package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"voxid/internal/identity/models"
	"voxid/internal/identity/secrets"
	"voxid/internal/identity/store/user"
	"voxid/internal/otp"
	"voxid/internal/platform/audit"
	"voxid/internal/platform/metrics"
	"voxid/internal/session"
	"voxid/internal/voice"
	dErrors "voxid/pkg/domain-errors"
	"voxid/pkg/email"
	"voxid/pkg/platform/sentinel"
	"voxid/pkg/requestcontext"
)

// Gate is the authentication boundary: logins, logouts, voice enrollment,
// and credential recovery. Every path that hands out or kills a token goes
// through here.
type Gate struct {
	users    user.Store
	engine   *voice.Engine
	sessions *session.Manager
	codes    *otp.Manager
	roles    models.RoleSet
	audit    audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewGate constructs an authentication gate.
func NewGate(
	users user.Store,
	engine *voice.Engine,
	sessions *session.Manager,
	codes *otp.Manager,
	roles models.RoleSet,
	auditor audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Gate {
	return &Gate{
		users:    users,
		engine:   engine,
		sessions: sessions,
		codes:    codes,
		roles:    roles,
		audit:    auditor,
		metrics:  m,
		logger:   logger,
	}
}

// Login exchanges an email and secret for a session token. An empty
// expectedRole skips the role check.
func (g *Gate) Login(ctx context.Context, address, secret string, expectedRole models.Role) (string, error) {
	address = email.Normalize(address)

	u, err := g.findByEmail(ctx, address)
	if err != nil {
		return "", g.loginFailed(ctx, "password", address, err)
	}
	if !u.Active {
		return "", g.loginFailed(ctx, "password", address, dErrors.New(dErrors.CodeInactive, "account has been deactivated"))
	}
	if err := secrets.Verify(secret, u.SecretHash); err != nil {
		return "", g.loginFailed(ctx, "password", address, err)
	}
	if expectedRole != "" && u.Role != expectedRole {
		return "", g.loginFailed(ctx, "password", address, dErrors.New(dErrors.CodeRoleMismatch, "role does not match"))
	}

	token, err := g.admit(ctx, u, "password", audit.ActionLogin)
	if err != nil {
		return "", err
	}
	return token, nil
}

// VoiceLogin exchanges an email and a voice sample for a session token.
func (g *Gate) VoiceLogin(ctx context.Context, address string, sample voice.Sample) (string, error) {
	address = email.Normalize(address)

	u, err := g.findByEmail(ctx, address)
	if err != nil {
		return "", g.loginFailed(ctx, "voice", address, err)
	}
	if !u.Active {
		return "", g.loginFailed(ctx, "voice", address, dErrors.New(dErrors.CodeInactive, "account has been deactivated"))
	}
	if !u.VoiceAuthEnabled || u.VoicePrint.Empty() {
		return "", g.loginFailed(ctx, "voice", address, dErrors.New(dErrors.CodeVoiceAuthNotEnabled, "voice authentication is not enabled"))
	}

	match, err := g.engine.Verify(ctx, address, sample, u.VoicePrint)
	if err != nil {
		return "", g.loginFailed(ctx, "voice", address, err)
	}
	if !match {
		g.metrics.VoiceDecisions.WithLabelValues("mismatch").Inc()
		return "", g.loginFailed(ctx, "voice", address, dErrors.New(dErrors.CodeVoiceMismatch, "voice did not match"))
	}
	g.metrics.VoiceDecisions.WithLabelValues("match").Inc()

	token, err := g.admit(ctx, u, "voice", audit.ActionVoiceLogin)
	if err != nil {
		return "", err
	}
	return token, nil
}

// admit stamps the login and issues the token.
func (g *Gate) admit(ctx context.Context, u models.User, method string, action audit.Action) (string, error) {
	token, err := g.sessions.Issue(ctx, u.Email)
	if err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	u.LastLoginAt = now
	u.UpdatedAt = now
	if err := g.users.Update(ctx, u); err != nil {
		g.logger.ErrorContext(ctx, "could not stamp last login", "email", u.Email, "error", err)
	}

	g.metrics.Logins.WithLabelValues(method, "success").Inc()
	g.audit.Publish(ctx, audit.Event{
		Timestamp: now,
		Action:    action,
		Subject:   u.Email,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return token, nil
}

func (g *Gate) loginFailed(ctx context.Context, method, address string, cause error) error {
	g.metrics.Logins.WithLabelValues(method, "failure").Inc()
	g.audit.Publish(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionLoginFailed,
		Subject:   address,
		Outcome:   "failure",
		Reason:    string(dErrors.CodeOf(cause)),
		RequestID: requestcontext.RequestID(ctx),
	})
	return cause
}

// Logout revokes the presented token and stamps the logout time.
func (g *Gate) Logout(ctx context.Context) error {
	subject, token, err := g.caller(ctx)
	if err != nil {
		return err
	}
	u, err := g.findByEmail(ctx, subject)
	if err != nil {
		return err
	}

	if err := g.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	g.stampLogout(ctx, u)
	g.audit.Publish(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionLogout,
		Subject:   subject,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// LogoutAll revokes every outstanding token the caller holds.
func (g *Gate) LogoutAll(ctx context.Context) error {
	subject, _, err := g.caller(ctx)
	if err != nil {
		return err
	}
	u, err := g.findByEmail(ctx, subject)
	if err != nil {
		return err
	}

	if err := g.sessions.RevokeAll(ctx, subject); err != nil {
		return err
	}
	g.stampLogout(ctx, u)
	g.audit.Publish(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionLogoutAll,
		Subject:   subject,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func (g *Gate) caller(ctx context.Context) (subject, token string, err error) {
	subject = requestcontext.Subject(ctx)
	token = requestcontext.BearerToken(ctx)
	if subject == "" || token == "" {
		return "", "", dErrors.New(dErrors.CodeNoAuthenticatedUser, "no authenticated user")
	}
	return subject, token, nil
}

func (g *Gate) stampLogout(ctx context.Context, u models.User) {
	now := requestcontext.Now(ctx)
	u.LastLogoutAt = now
	u.UpdatedAt = now
	if err := g.users.Update(ctx, u); err != nil {
		g.logger.ErrorContext(ctx, "could not stamp last logout", "email", u.Email, "error", err)
	}
}

// EnrollVoice captures a print for the account and turns voice auth on.
// Re-enrolling overwrites the stored print.
func (g *Gate) EnrollVoice(ctx context.Context, address string, sample voice.Sample) error {
	address = email.Normalize(address)
	u, err := g.findByEmail(ctx, address)
	if err != nil {
		return err
	}
	return g.enroll(ctx, u, sample)
}

// EnableVoice is the authenticated variant of enrollment. Unlike EnrollVoice
// it refuses when the flag is already set.
func (g *Gate) EnableVoice(ctx context.Context, sample voice.Sample) error {
	subject, _, err := g.caller(ctx)
	if err != nil {
		return err
	}
	u, err := g.findByEmail(ctx, subject)
	if err != nil {
		return err
	}
	if u.VoiceAuthEnabled {
		return dErrors.New(dErrors.CodeVoiceAlreadyEnabled, "voice authentication is already enabled")
	}
	return g.enroll(ctx, u, sample)
}

func (g *Gate) enroll(ctx context.Context, u models.User, sample voice.Sample) error {
	print, err := g.engine.Capture(ctx, u.Email, sample)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	u.VoicePrint = print
	u.VoiceAuthEnabled = true
	u.UpdatedAt = now
	if err := g.users.Update(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not save voice print")
	}

	g.audit.Publish(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionVoiceEnrolled,
		Subject:   u.Email,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// DisableVoice clears the stored print and turns voice auth off.
func (g *Gate) DisableVoice(ctx context.Context) error {
	subject, _, err := g.caller(ctx)
	if err != nil {
		return err
	}
	u, err := g.findByEmail(ctx, subject)
	if err != nil {
		return err
	}
	if !u.VoiceAuthEnabled {
		return dErrors.New(dErrors.CodeVoiceAlreadyDisabled, "voice authentication is already disabled")
	}

	now := requestcontext.Now(ctx)
	u.VoicePrint = voice.Print{}
	u.VoiceAuthEnabled = false
	u.UpdatedAt = now
	if err := g.users.Update(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not disable voice auth")
	}

	g.audit.Publish(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionVoiceDisabled,
		Subject:   subject,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// VerifyVoice runs a standalone match with no login side effects. A mismatch
// comes back as (false, nil); errors mean the check could not run.
func (g *Gate) VerifyVoice(ctx context.Context, address string, sample voice.Sample) (bool, error) {
	address = email.Normalize(address)
	u, err := g.findByEmail(ctx, address)
	if err != nil {
		return false, err
	}
	if !u.VoiceAuthEnabled || u.VoicePrint.Empty() {
		return false, dErrors.New(dErrors.CodeVoiceAuthNotEnabled, "voice authentication is not enabled")
	}

	match, err := g.engine.Verify(ctx, address, sample, u.VoicePrint)
	if err != nil {
		return false, err
	}
	if match {
		g.metrics.VoiceDecisions.WithLabelValues("match").Inc()
	} else {
		g.metrics.VoiceDecisions.WithLabelValues("mismatch").Inc()
	}
	return match, nil
}

// ProfileUpdate carries the mutable profile fields. Zero values keep the
// stored ones.
type ProfileUpdate struct {
	Email  string
	Secret string
	Role   models.Role
}

// UpdateProfile mutates the identity and returns a fresh token, since the
// subject may have changed. The caller must be the identity itself or hold
// the admin role.
func (g *Gate) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (string, error) {
	subject := requestcontext.Subject(ctx)
	if subject == "" {
		return "", dErrors.New(dErrors.CodeNoAuthenticatedUser, "no authenticated user")
	}

	u, err := g.findByID(ctx, id)
	if err != nil {
		return "", err
	}
	if u.Email != subject {
		caller, err := g.findByEmail(ctx, subject)
		if err != nil {
			return "", err
		}
		if caller.Role != models.RoleAdmin {
			return "", dErrors.New(dErrors.CodeForbidden, "cannot update another user's profile")
		}
	}
	if !u.Active {
		return "", dErrors.New(dErrors.CodeInactive, "account has been deactivated")
	}

	if upd.Email != "" {
		address := email.Normalize(upd.Email)
		if !email.Valid(address) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
		}
		u.Email = address
	}
	if upd.Role != "" {
		if !g.roles.Contains(upd.Role) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
		}
		u.Role = upd.Role
	}
	if upd.Secret != "" {
		hash, err := secrets.Hash(upd.Secret)
		if err != nil {
			return "", err
		}
		u.SecretHash = hash
	}

	u.UpdatedAt = requestcontext.Now(ctx)
	if err := g.users.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeAlreadyExists, "email is already registered")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not update profile")
	}

	return g.sessions.Issue(ctx, u.Email)
}

// SendResetOTP begins password recovery for an existing account.
func (g *Gate) SendResetOTP(ctx context.Context, address string) error {
	address = email.Normalize(address)
	if _, err := g.findByEmail(ctx, address); err != nil {
		return err
	}
	_, err := g.codes.IssueReset(ctx, address)
	return err
}

// ResetPassword redeems a reset code and installs the new secret. The code
// is retired afterwards so the store does not accumulate spent records.
func (g *Gate) ResetPassword(ctx context.Context, address, code, newSecret string) error {
	address = email.Normalize(address)

	if err := g.codes.Verify(ctx, address, code); err != nil {
		return err
	}
	u, err := g.findByEmail(ctx, address)
	if err != nil {
		return err
	}

	hash, err := secrets.Hash(newSecret)
	if err != nil {
		return err
	}
	u.SecretHash = hash
	u.UpdatedAt = requestcontext.Now(ctx)
	if err := g.users.Update(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update secret")
	}

	if err := g.codes.Retire(ctx, address, code); err != nil {
		g.logger.WarnContext(ctx, "could not retire reset code", "email", address, "error", err)
	}

	g.audit.Publish(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionPasswordReset,
		Subject:   address,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// FindByID looks up an identity for profile display.
func (g *Gate) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return g.findByID(ctx, id)
}

func (g *Gate) findByEmail(ctx context.Context, address string) (models.User, error) {
	u, err := g.users.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return u, nil
}

func (g *Gate) findByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return u, nil
}
