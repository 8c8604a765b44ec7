// Package worker delivers lead submissions in the background. The api
// package holds a worker.Enqueuer and calls Enqueue; it never waits for a
// delivery and never sees a delivery error.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nyashahama/management-diagnostic/internal/lead"
)

// ErrQueueFull is returned by Enqueue when the buffer is saturated.
var ErrQueueFull = errors.New("worker: queue is full")

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off a lead.
// The concrete implementation is *Runner; in tests any struct with an
// Enqueue method will do.
type Enqueuer interface {
	Enqueue(ctx context.Context, s lead.Submission) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields take the
// values from DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent delivery goroutines. Default: 2.
	Workers int

	// QueueSize is the channel buffer. Default: Workers*16.
	QueueSize int

	// JobTimeout is the per-attempt deadline for a single sink. Default: 15s.
	JobTimeout time.Duration

	// MaxAttempts is how many times a sink is tried before the submission is
	// given up on for that sink. Default: 1 (fire-and-forget).
	MaxAttempts int

	// Backoff is the wait before the second attempt; it doubles after that.
	// Default: 2s.
	Backoff time.Duration
}

// DefaultRunnerConfig returns production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:     2,
		JobTimeout:  15 * time.Second,
		MaxAttempts: 1,
		Backoff:     2 * time.Second,
	}
}

// Runner manages a pool of goroutines that fan each submission out to every
// sink.
type Runner struct {
	sinks  []lead.Sink
	cfg    RunnerConfig
	logger *slog.Logger

	queue chan lead.Submission
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(sinks []lead.Sink, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 16
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}

	return &Runner{
		sinks:  sinks,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan lead.Submission, cfg.QueueSize),
	}
}

// Enqueue pushes a submission onto the channel. It never blocks: a full
// queue is reported as ErrQueueFull and the lead is dropped.
func (r *Runner) Enqueue(_ context.Context, s lead.Submission) error {
	if len(r.sinks) == 0 {
		r.logger.Debug("worker: no sinks configured, dropping lead", "lead_id", s.ID)
		return nil
	}
	select {
	case r.queue <- s:
		r.logger.Info("worker: enqueued lead", "lead_id", s.ID, "session_id", s.SessionID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool and blocks until ctx is cancelled. Call it
// in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	names := make([]string, len(r.sinks))
	for i, s := range r.sinks {
		names[i] = s.Name()
	}
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "sinks", names)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Wait()
	if n := len(r.queue); n > 0 {
		r.logger.Warn("worker: stopped with undelivered leads", "count", n)
		return
	}
	r.logger.Info("worker: stopped")
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Debug("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker: goroutine stopping")
			return
		case s := <-r.queue:
			r.dispatch(ctx, s, log)
		}
	}
}

// dispatch hands the submission to every sink. Sinks are independent: one
// failing does not stop the others.
func (r *Runner) dispatch(ctx context.Context, s lead.Submission, log *slog.Logger) {
	log = log.With("lead_id", s.ID)
	for _, sink := range r.sinks {
		job := &Job{Sink: sink, Submission: s}
		if err := job.runWithRetry(ctx, r.cfg, log); err != nil {
			log.Error("worker: delivery permanently failed", "sink", sink.Name(), "error", err)
		}
	}
}
