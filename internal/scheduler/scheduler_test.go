package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.runs.Add(1)
	return nil
}

// TestStartHonorsSubMinuteInterval verifies the configured interval is used
// as-is; a sub-minute interval must fire repeatedly, not get rounded to whole
// minutes.
func TestStartHonorsSubMinuteInterval(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 50*time.Millisecond, time.Second)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if got := runner.runs.Load(); got < 3 {
		t.Errorf("runner fired %d times in 2s with a 50ms interval", got)
	}
}
