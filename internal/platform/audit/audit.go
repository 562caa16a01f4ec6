// Package audit emits security-relevant events from the identity core.
//
// Events are fire-and-forget: a publish failure is logged and never fails the
// operation that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action names the operation an event records.
type Action string

const (
	ActionRegistrationCompleted Action = "registration_completed"
	ActionLogin                 Action = "login"
	ActionVoiceLogin            Action = "voice_login"
	ActionLoginFailed           Action = "login_failed"
	ActionLogout                Action = "logout"
	ActionLogoutAll             Action = "logout_all"
	ActionVoiceEnrolled         Action = "voice_enrolled"
	ActionVoiceDisabled         Action = "voice_disabled"
	ActionPasswordReset         Action = "password_reset"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject"`
	UserID    string    `json:"user_id,omitempty"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// SlogPublisher writes events to the structured log. It is the default sink
// when no broker is configured.
type SlogPublisher struct {
	logger *slog.Logger
}

func NewSlogPublisher(logger *slog.Logger) *SlogPublisher {
	return &SlogPublisher{logger: logger}
}

func (p *SlogPublisher) Publish(ctx context.Context, event Event) {
	p.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"subject", event.Subject,
		"user_id", event.UserID,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
}

// NopPublisher discards events; used in tests that do not assert on audit.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
