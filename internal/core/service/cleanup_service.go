package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sellerhub/identity-service/internal/api/metrics"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

const defaultReapInterval = time.Minute

// CleanupService is the expiry reaper: a timer-driven sweep of staged
// registrations and refresh-token records past their expiry. It never runs
// on a request path.
type CleanupService struct {
	pending ports.PendingRepository
	tokens  ports.TokenRepository
	clock   ports.Clock
	log     zerolog.Logger
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(
	pending ports.PendingRepository,
	tokens ports.TokenRepository,
	clock ports.Clock,
	log zerolog.Logger,
) *CleanupService {
	return &CleanupService{pending: pending, tokens: tokens, clock: clock, log: log}
}

// Start launches the reaper loop. It stops when ctx is cancelled. When
// interval is non-positive the default of one minute applies.
func (s *CleanupService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultReapInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Run(ctx)
			}
		}
	}()
}

// Run performs one reap cycle. The two sweeps are unrelated; a failure in
// one is logged and does not prevent the other.
func (s *CleanupService) Run(ctx context.Context) {
	now := s.clock.Now()

	if n, err := s.pending.DeleteExpired(ctx, now); err != nil {
		metrics.ReaperSweepsTotal.WithLabelValues("pending", "error").Inc()
		s.log.Error().Err(err).Msg("pending registration sweep failed")
	} else {
		metrics.ReaperSweepsTotal.WithLabelValues("pending", "ok").Inc()
		if n > 0 {
			s.log.Info().Int64("deleted", n).Msg("expired pending registrations reaped")
		}
	}

	if n, err := s.tokens.DeleteExpired(ctx, now); err != nil {
		metrics.ReaperSweepsTotal.WithLabelValues("tokens", "error").Inc()
		s.log.Error().Err(err).Msg("refresh token sweep failed")
	} else {
		metrics.ReaperSweepsTotal.WithLabelValues("tokens", "ok").Inc()
		if n > 0 {
			s.log.Info().Int64("deleted", n).Msg("expired refresh tokens reaped")
		}
	}
}
