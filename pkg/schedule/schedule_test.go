package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/stagehand/pkg/schedule"
	"github.com/stretchr/testify/assert"
)

func TestTimer_RunsAfterDelay(t *testing.T) {
	timer := schedule.NewTimer()
	var ran atomic.Bool

	start := time.Now()
	timer.After(20*time.Millisecond, func(ctx context.Context) {
		ran.Store(true)
	})
	assert.False(t, ran.Load(), "After must not block or run inline")

	timer.Wait()
	assert.True(t, ran.Load())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTimer_PanicIsContained(t *testing.T) {
	timer := schedule.NewTimer()
	var after atomic.Bool

	timer.After(time.Millisecond, func(ctx context.Context) { panic("boom") })
	timer.After(2*time.Millisecond, func(ctx context.Context) { after.Store(true) })

	timer.Wait()
	assert.True(t, after.Load())
}

func TestTimer_TaskContextHasDeadline(t *testing.T) {
	timer := schedule.NewTimer(schedule.WithTaskTimeout(time.Second))
	var hasDeadline atomic.Bool

	timer.After(0, func(ctx context.Context) {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
	})

	timer.Wait()
	assert.True(t, hasDeadline.Load())
}
