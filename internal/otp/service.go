package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	dErrors "voxid/pkg/domain-errors"
	"voxid/pkg/platform/sentinel"
	"voxid/pkg/requestcontext"
)

const (
	codeMin  = 100000
	codeSpan = 900000 // codes are uniform over [100000, 999999]
)

// Manager issues, verifies, and retires one-time codes.
type Manager struct {
	store  Store
	sender Sender
	logger *slog.Logger

	ttl time.Duration
	// singleShotIssue marks a code used at send time, reproducing the legacy
	// issuance path where codes act as one-shot issuance tokens. Verify then
	// deterministically fails with code_already_used.
	singleShotIssue bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the default 2-minute code lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSingleShotIssue toggles marking codes used at issue time.
func WithSingleShotIssue(on bool) Option {
	return func(m *Manager) { m.singleShotIssue = on }
}

// NewManager constructs an OTP manager backed by the given store and sender.
func NewManager(store Store, sender Sender, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		sender: sender,
		logger: logger,
		ttl:    2 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Issue generates a code, delivers it, and persists the record. The send runs
// first: a code the user never received must not sit redeemable in the store.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	return m.issue(ctx, email, m.sender.Send)
}

// IssueReset is Issue with the password-reset delivery template.
func (m *Manager) IssueReset(ctx context.Context, email string) (string, error) {
	return m.issue(ctx, email, m.sender.SendReset)
}

func (m *Manager) issue(ctx context.Context, email string, send func(context.Context, string, string) error) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	now := requestcontext.Now(ctx)
	if err := send(ctx, email, code); err != nil {
		m.logger.ErrorContext(ctx, "otp delivery failed", "error", err)
		return "", dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "failed to deliver code")
	}

	rec := Record{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Used:      m.singleShotIssue,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist code")
	}
	return code, nil
}

// Verify consumes the (email, code) pair. A second call with the same inputs
// deterministically fails with code_already_used.
func (m *Manager) Verify(ctx context.Context, email, code string) error {
	rec, err := m.store.Find(ctx, email, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidCode, "invalid code or email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up code")
	}

	if rec.Used {
		return dErrors.New(dErrors.CodeCodeUsed, "code has already been used")
	}
	if rec.Expired(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeCodeExpired, "code has expired")
	}

	if err := m.store.MarkUsed(ctx, email, code); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return dErrors.New(dErrors.CodeCodeUsed, "code has already been used")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeInvalidCode, "invalid code or email")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume code")
		}
	}
	return nil
}

// Retire deletes a used or expired record. Deleting a code a client might
// still be racing to redeem fails with code_still_valid.
func (m *Manager) Retire(ctx context.Context, email, code string) error {
	rec, err := m.store.Find(ctx, email, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidCode, "invalid code or email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up code")
	}

	if !rec.Used && !rec.Expired(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeCodeStillValid, "code is still valid and unused")
	}

	if err := m.store.Delete(ctx, email, code); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil // someone else already retired it
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete code")
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
