// Package service holds the identity workflows: registration and the
// authentication gate. Stores persist, the voice engine matches, the session
// manager signs; this package owns the rules that tie them together.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voxid/internal/identity/models"
	"voxid/internal/identity/secrets"
	"voxid/internal/identity/store/pending"
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

// Registrar drives the two-phase registration flow: Start parks an applicant
// and issues a code, Complete redeems the code and materializes the identity.
// Nothing permanent exists until Complete succeeds.
type Registrar struct {
	users    user.Store
	pending  pending.Store
	codes    *otp.Manager
	engine   *voice.Engine
	sessions *session.Manager
	roles    models.RoleSet
	audit    audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	pendingTTL time.Duration
}

// NewRegistrar constructs a registrar.
func NewRegistrar(
	users user.Store,
	pendingStore pending.Store,
	codes *otp.Manager,
	engine *voice.Engine,
	sessions *session.Manager,
	roles models.RoleSet,
	auditor audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	pendingTTL time.Duration,
) *Registrar {
	return &Registrar{
		users:      users,
		pending:    pendingStore,
		codes:      codes,
		engine:     engine,
		sessions:   sessions,
		roles:      roles,
		audit:      auditor,
		metrics:    m,
		logger:     logger,
		pendingTTL: pendingTTL,
	}
}

// StartResult reports a successfully opened registration.
type StartResult struct {
	Email string
	// Code is the issued verification code, echoed back so the caller can
	// confirm delivery happened. Transport layers must not expose it.
	Code string
	// GeneratedSecret is set only on the voice path, where the account
	// secret is machine-chosen and must be handed back to the caller once.
	GeneratedSecret string
}

// Start opens a password registration: validates input, parks the applicant,
// and sends a code to prove mailbox ownership.
func (r *Registrar) Start(ctx context.Context, address, secret string, role models.Role) (StartResult, error) {
	address = email.Normalize(address)
	if !email.Valid(address) {
		return StartResult{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if secret == "" {
		return StartResult{}, dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	if !r.roles.Contains(role) {
		return StartResult{}, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if err := r.ensureUnregistered(ctx, address); err != nil {
		return StartResult{}, err
	}

	hash, err := secrets.Hash(secret)
	if err != nil {
		return StartResult{}, err
	}

	code, err := r.park(ctx, models.PendingApplicant{
		Email:      address,
		SecretHash: hash,
		Role:       role,
	})
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{Email: address, Code: code}, nil
}

// StartVoice opens a voice registration: the applicant speaks instead of
// choosing a secret, so one is generated for them.
func (r *Registrar) StartVoice(ctx context.Context, address string, role models.Role, sample voice.Sample) (StartResult, error) {
	address = email.Normalize(address)
	if !email.Valid(address) {
		return StartResult{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if !r.roles.Contains(role) {
		return StartResult{}, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if err := r.ensureUnregistered(ctx, address); err != nil {
		return StartResult{}, err
	}

	print, err := r.engine.Capture(ctx, address, sample)
	if err != nil {
		return StartResult{}, err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return StartResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return StartResult{}, err
	}

	code, err := r.park(ctx, models.PendingApplicant{
		Email:      address,
		SecretHash: hash,
		VoicePrint: print,
		Role:       role,
	})
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{Email: address, Code: code, GeneratedSecret: secret}, nil
}

func (r *Registrar) ensureUnregistered(ctx context.Context, address string) error {
	_, err := r.users.FindByEmail(ctx, address)
	if err == nil {
		return dErrors.New(dErrors.CodeAlreadyExists, "email is already registered")
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not check email")
	}
	return nil
}

// park issues the code and saves the applicant. Re-parking the same email
// replaces the earlier applicant and its code.
func (r *Registrar) park(ctx context.Context, p models.PendingApplicant) (string, error) {
	code, err := r.codes.Issue(ctx, p.Email)
	if err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	p.Code = code
	p.CreatedAt = now
	p.ExpiresAt = now.Add(r.pendingTTL)
	if err := r.pending.Save(ctx, p); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not save pending registration")
	}

	r.metrics.RegistrationsStarted.Inc()
	r.logger.InfoContext(ctx, "registration started", "email", p.Email, "role", string(p.Role), "voice", !p.VoicePrint.Empty())
	return code, nil
}

// Complete redeems the code for a password registration and returns the
// first session token.
func (r *Registrar) Complete(ctx context.Context, address, code string) (string, error) {
	return r.complete(ctx, address, code, false)
}

// CompleteVoice redeems the code for a voice registration. The materialized
// identity carries the captured print with voice auth already enabled.
func (r *Registrar) CompleteVoice(ctx context.Context, address, code string) (string, error) {
	return r.complete(ctx, address, code, true)
}

func (r *Registrar) complete(ctx context.Context, address, code string, wantVoice bool) (string, error) {
	address = email.Normalize(address)

	p, err := r.pending.Find(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no pending registration for this email")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not load pending registration")
	}
	if wantVoice && p.VoicePrint.Empty() {
		return "", dErrors.New(dErrors.CodeNoVoiceInput, "registration has no voice print")
	}

	if err := r.codes.Verify(ctx, address, code); err != nil {
		return "", err
	}
	// The code manager has the last word on liveness; this verbatim compare
	// additionally pins the code to this applicant.
	if p.Code != code {
		return "", dErrors.New(dErrors.CodeInvalidCode, "invalid code or email")
	}

	now := requestcontext.Now(ctx)
	u := models.User{
		ID:           uuid.New(),
		Email:        address,
		SecretHash:   p.SecretHash,
		Role:         p.Role,
		Active:       true,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if wantVoice {
		u.VoicePrint = p.VoicePrint
		u.VoiceAuthEnabled = true
	}

	if err := r.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeAlreadyExists, "email is already registered")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not create identity")
	}
	if err := r.pending.Delete(ctx, address); err != nil {
		r.logger.ErrorContext(ctx, "could not delete pending registration", "email", address, "error", err)
	}

	token, err := r.sessions.Issue(ctx, address)
	if err != nil {
		return "", err
	}

	r.metrics.RegistrationsCompleted.Inc()
	r.audit.Publish(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionRegistrationCompleted,
		Subject:   address,
		UserID:    u.ID.String(),
		Outcome:   "success",
		RequestID: requestcontext.RequestID(ctx),
	})
	return token, nil
}
