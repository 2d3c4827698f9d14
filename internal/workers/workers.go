package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper flags tokens that ran out of time or quota.
type Sweeper interface {
	Sweep(ctx context.Context) (expired, exhausted int64, err error)
}

// Job is one pass of a periodic worker.
type Job func(ctx context.Context) error

// SweepTokens marks expired and exhausted tokens so that listings show their
// true state without waiting for a key to be presented.
func SweepTokens(s Sweeper) Job {
	return func(ctx context.Context) error {
		expired, exhausted, err := s.Sweep(ctx)
		if err != nil {
			return err
		}
		if expired > 0 || exhausted > 0 {
			log.Info().Int64("expired", expired).Int64("exhausted", exhausted).Msg("worker: token sweep")
		}
		return nil
	}
}

// Run executes job once immediately and then every interval until ctx ends.
// Failures are logged and do not stop the loop.
func Run(ctx context.Context, name string, interval time.Duration, job Job) {
	if interval <= 0 {
		interval = time.Minute
	}
	logger := log.With().Str("worker", name).Logger()
	logger.Info().Dur("interval", interval).Msg("worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("worker run failed")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stopped")
			return
		case <-ticker.C:
		}
	}
}
