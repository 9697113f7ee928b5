// Package worker runs the periodic retention sweep. Expiration is also
// enforced lazily on every archive read; the worker guarantees archives
// nobody reads still get anonymized on schedule.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// ExpirationSweeper runs the full expiration check on a fixed interval.
type ExpirationSweeper struct {
	sweep    func(ctx context.Context) (int, error)
	interval time.Duration
	logger   *slog.Logger
}

// New builds a sweeper. sweep returns how many archives were anonymized.
func New(sweep func(ctx context.Context) (int, error), interval time.Duration, logger *slog.Logger) *ExpirationSweeper {
	return &ExpirationSweeper{sweep: sweep, interval: interval, logger: logger}
}

// Run sweeps once immediately, then on every tick until the context ends.
func (s *ExpirationSweeper) Run(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ExpirationSweeper) runOnce(ctx context.Context) {
	applied, err := s.sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiration sweep failed", "error", err.Error())
		return
	}
	if applied > 0 {
		s.logger.InfoContext(ctx, "expiration sweep applied anonymization",
			"archives", applied,
		)
	}
}
