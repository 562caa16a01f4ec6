package service

import (
	"context"
	"log/slog"
	"time"

	"voxid/internal/identity/store/pending"
)

// Sweeper reaps expired pending applicants so abandoned registrations do not
// pile up. Nothing else depends on the sweep; an applicant past expiry is
// already unredeemable because its code has expired.
type Sweeper struct {
	pending  pending.Store
	logger   *slog.Logger
	interval time.Duration
}

// NewSweeper constructs a sweeper.
func NewSweeper(store pending.Store, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{pending: store, logger: logger, interval: interval}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	swept, err := s.pending.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "pending sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.logger.InfoContext(ctx, "swept expired pending registrations", "count", swept)
	}
}
