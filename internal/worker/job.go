package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nyashahama/management-diagnostic/internal/lead"
)

// Job is one submission bound for one sink.
type Job struct {
	Sink       lead.Sink
	Submission lead.Submission
}

// Run makes a single delivery attempt.
func (j *Job) Run(ctx context.Context) error {
	if err := j.Sink.Deliver(ctx, j.Submission); err != nil {
		return fmt.Errorf("job: %s: %w", j.Sink.Name(), err)
	}
	return nil
}

// runWithRetry tries the job up to cfg.MaxAttempts times with exponential
// back-off between attempts. It returns the last error.
func (j *Job) runWithRetry(ctx context.Context, cfg RunnerConfig, log *slog.Logger) error {
	log = log.With("sink", j.Sink.Name())
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
		lastErr = j.Run(jobCtx)
		cancel()

		if lastErr == nil {
			log.Info("worker: lead delivered", "attempt", attempt)
			return nil
		}

		log.Warn("worker: delivery attempt failed",
			"attempt", attempt,
			"max", cfg.MaxAttempts,
			"error", lastErr,
		)

		if attempt < cfg.MaxAttempts {
			backoff := cfg.Backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
