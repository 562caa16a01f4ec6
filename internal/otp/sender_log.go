package otp

import (
	"context"
	"log/slog"
)

// LogSender writes codes to the log instead of delivering them. It is the
// development fallback when no mail integration is configured; never use it
// where the log stream is shared.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "otp issued (dev sender)", "email", email, "code", code)
	return nil
}

func (s *LogSender) SendReset(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "reset otp issued (dev sender)", "email", email, "code", code)
	return nil
}
