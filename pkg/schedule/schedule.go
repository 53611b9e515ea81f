// Package schedule provides the timer-backed ports.Scheduler.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stagehand/internal/logging"
)

// Timer runs each task on its own time.AfterFunc. Tasks are detached from the
// event that scheduled them: they get a fresh background context bounded by
// the task timeout, and a panicking task is logged instead of crashing.
type Timer struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// Option configures a Timer.
type Option func(*Timer)

// WithLogger sets the logger used to report failed tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Timer) {
		t.logger = logger
	}
}

// WithTaskTimeout bounds how long a single task may run (default 30s).
func WithTaskTimeout(d time.Duration) Option {
	return func(t *Timer) {
		t.timeout = d
	}
}

// NewTimer creates a timer-backed scheduler.
func NewTimer(opts ...Option) *Timer {
	t := &Timer{
		logger:  logging.NewNop(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// After schedules task to run once delay has elapsed. It never blocks.
func (t *Timer) After(delay time.Duration, task func(ctx context.Context)) {
	t.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Warn("Scheduled task panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		task(ctx)
	})
}

// Wait blocks until every task scheduled so far has run. Used at shutdown and in tests.
func (t *Timer) Wait() {
	t.wg.Wait()
}
