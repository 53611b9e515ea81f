package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event ("router.callback", "restore.meta", ...).
type EventType string

const (
	EventMessage      EventType = "router.message"
	EventCallback     EventType = "router.callback"
	EventUnhandled    EventType = "router.unhandled"
	EventRejected     EventType = "router.rejected"
	EventControl      EventType = "router.control"
	EventStaleMenu    EventType = "router.stale_menu"
	EventRestore      EventType = "restore"
	EventRender       EventType = "viewport.render"
	EventRenderFailed EventType = "viewport.render_failed"
	EventPersistFail  EventType = "viewport.persist_failed"
	EventSideEffect   EventType = "effect.side_effect"
	EventSwitch       EventType = "effect.switch"
)

// Event is an observability event. Scene is empty when no scene is involved;
// Label carries the restore tier, render policy or control payload.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	ChatID    int64
	Scene     string
	Label     string
	Data      map[string]any
}

// Observer receives events for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit stamps the event and forwards it; a nil observer discards it.
func Emit(ctx context.Context, obs Observer, event Event) {
	if obs == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == 0 {
		event.Level = LevelVerbose
	}
	obs.OnEvent(ctx, event)
}
