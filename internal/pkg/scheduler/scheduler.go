// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled unit of work. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron instance. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	jobTimeout time.Duration
}

// New creates a stopped scheduler. jobTimeout bounds every run; zero means
// no deadline beyond the scheduler's lifetime.
func New(jobTimeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		ctx:        ctx,
		cancel:     cancel,
		jobTimeout: jobTimeout,
	}
}

// Add registers job under name on a cron schedule ("@every 1m", "*/5 * * * *", ...).
func (s *Scheduler) Add(schedule, name string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, schedule, err)
	}
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("scheduled job panicked", "job", name, "panic", r)
			}
		}()

		ctx := s.ctx
		if s.jobTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
			defer cancel()
		}

		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Warn("scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		slog.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
