package ports

import (
	"context"
	"time"
)

// Scheduler runs detached work after a delay.
// There is no cancellation: once scheduled, the task runs (best effort).
type Scheduler interface {
	After(delay time.Duration, task func(ctx context.Context))
}
