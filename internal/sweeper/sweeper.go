package sweeper

import (
	"context"
	"time"

	"github.com/alertline/alertline-api/internal/alerting"
	"github.com/rs/zerolog"
)

// Sweeper triggers the engine's reminder sweep on a fixed interval. The
// engine holds no timer of its own; this is the external trigger, and the
// sweep itself is safe to invoke concurrently.
type Sweeper struct {
	service  alerting.Service
	interval time.Duration
	logger   zerolog.Logger
}

func New(service alerting.Service, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("reminder sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.service.SweepReminders(ctx)
			if err != nil {
				// Log and keep ticking; the next sweep retries.
				s.logger.Error().Err(err).Msg("reminder sweep failed")
				continue
			}
			s.logger.Debug().Int("alerts_swept", swept).Msg("reminder sweep complete")
		}
	}
}
