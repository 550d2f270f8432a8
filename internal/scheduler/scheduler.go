package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/khoward12/yard-data-aggregation/internal/pipeline"
)

// Runner is the pipeline surface the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers an aggregation run at a fixed interval. Each run gets
// its own timeout; a tick that finds a run still in progress is skipped by
// the pipeline's run lock.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
}

func New(runner Runner, interval, runTimeout time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
	}
}

// Start schedules the periodic run and starts the underlying scheduler. The
// first run fires immediately rather than waiting a full interval. The
// interval is honored as a duration, not rounded to whole minutes.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if err := s.runner.Run(ctx); err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				return
			}
			slog.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
