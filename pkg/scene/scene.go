package scene

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
)

// Context is what a scene sees of the event it handles.
type Context struct {
	ChatID int64
	// MessageID is the message the event came from (the callback's origin),
	// or nil for text messages.
	MessageID *int32
	Now       time.Time
	Logger    *slog.Logger
}

// Scene is a conversation flow with state S and events E.
type Scene[S, E any] interface {
	// ID is globally unique among registered scenes.
	ID() string
	// Prefix namespaces the scene's callback payloads; globally unique.
	Prefix() string
	// Version must be bumped whenever the encoding of S changes.
	Version() uint16

	Init(c *Context) S
	Render(c *Context, state S) domain.View
	Update(c *Context, state S, event E) Effect[S]
	Bindings() Bindings[E]
}

// Snapshotter lets a scene replace the default canonical-JSON snapshot.
type Snapshotter[S any] interface {
	Snapshot(state S) *domain.Snapshot
}

// Restorer lets a scene replace the default restore.
type Restorer[S any] interface {
	Restore(snap domain.Snapshot) (S, bool)
}

// InputHandler lets a scene consume the reply to its own open input prompt.
// The router offers every text message to it while the chat's prompt was
// rendered by the scene; returning false falls back to the message bindings.
type InputHandler[S any] interface {
	HandleInput(c *Context, state S, text string) (Effect[S], bool)
}

// DefaultSnapshot serializes state to canonical JSON and checksums it.
// It returns nil when state cannot be serialized, which makes the state
// unrecoverable: the next restore falls back to Init.
func DefaultSnapshot[S any](sceneID string, version uint16, state S) *domain.Snapshot {
	data, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	snap := domain.NewSnapshot(sceneID, version, data)
	return &snap
}

// DefaultRestore checks, in order, the scene id, the version, the checksum
// (when present) and then decodes the state. Any failure yields (zero, false).
func DefaultRestore[S any](sceneID string, version uint16, snap domain.Snapshot) (S, bool) {
	var zero S
	if snap.SceneID != sceneID {
		return zero, false
	}
	if snap.SceneVersion != version {
		return zero, false
	}
	if !snap.ChecksumValid() {
		return zero, false
	}
	if snap.StateJSON == nil {
		return zero, false
	}
	var state S
	if err := json.Unmarshal([]byte(*snap.StateJSON), &state); err != nil {
		return zero, false
	}
	return state, true
}
