package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job represents a function to be executed by the scheduler
type Job func(ctx context.Context)

// Scheduler runs a job periodically. Runs are serialized on one goroutine.
type Scheduler struct {
	logger    *slog.Logger
	interval  time.Duration
	job       Job
	done      chan struct{}
	stopOnce  sync.Once
	triggerCh chan struct{}
	wg        sync.WaitGroup
}

// New creates a new scheduler instance
func New(logger *slog.Logger, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{
		logger:    logger,
		interval:  interval,
		job:       job,
		done:      make(chan struct{}),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start runs the job once immediately and then on every interval
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJob(ctx)
		s.run(ctx)
	}()
}

// Stop stops the scheduler and waits for a running job to return
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping scheduler")
		close(s.done)
	})
	s.wg.Wait()
}

// TriggerCheck schedules an extra job execution
func (s *Scheduler) TriggerCheck(ctx context.Context) error {
	select {
	case s.triggerCh <- struct{}{}:
		s.logger.Info("Manual trigger scheduled")
	default:
		s.logger.Warn("Manual trigger ignored - already pending")
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped due to context cancellation")
			return
		case <-s.done:
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.logger.Debug("Scheduler tick - executing job")
			s.executeJob(ctx)
		case <-s.triggerCh:
			s.logger.Info("Manual trigger - executing job")
			s.executeJob(ctx)
		}
	}
}

// executeJob runs the job with panic recovery and timing
func (s *Scheduler) executeJob(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Job panicked", "panic", r, "duration", time.Since(start))
		}
	}()

	s.logger.Debug("Job execution started")
	s.job(ctx)
	s.logger.Debug("Job execution completed", "duration", time.Since(start))
}
