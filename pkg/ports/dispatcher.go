package ports

import (
	"context"

	"github.com/aretw0/stagehand/pkg/domain"
)

// Dispatcher consumes incoming chat updates. The router implements it and the
// inbound adapters (webhook, console) feed it.
type Dispatcher interface {
	// Dispatch routes one update and reports whether a scene or control handled it.
	Dispatch(ctx context.Context, update domain.Update) bool
}
