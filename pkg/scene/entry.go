package scene

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/stagehand/internal/logging"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/session"
	"github.com/aretw0/stagehand/pkg/viewport"
)

// Runtime bundles the collaborators an Entry needs to handle one event.
// The router owns it and passes it on every call.
type Runtime struct {
	Transport ports.Transport
	Sessions  *session.Manager
	Metadata  ports.MetadataStore
	Viewport  *viewport.Viewport
	Scheduler ports.Scheduler
	Logger    *slog.Logger
	Observer  observability.Observer
	Now       func() time.Time

	// Switch re-enters another scene by id via init-and-render.
	// It reports false for unknown ids.
	Switch func(ctx context.Context, chatID int64, sceneID string) bool
}

func (rt *Runtime) logger() *slog.Logger {
	if rt.Logger == nil {
		return logging.NewNop()
	}
	return rt.Logger
}

func (rt *Runtime) now() time.Time {
	if rt.Now == nil {
		return time.Now()
	}
	return rt.Now()
}

// Entry is a type-erased scene, as held by the router.
type Entry interface {
	ID() string
	Prefix() string
	Version() uint16

	// ClaimsCallback reports whether data follows this scene's
	// "<prefix>[:payload]" convention.
	ClaimsCallback(data string) bool
	// MatchesCallback reports whether any callback matcher accepts data.
	MatchesCallback(data string) bool
	// MatchesMessage reports whether any message matcher accepts text.
	// Free-text matchers only count while promptOpen is true.
	MatchesMessage(text string, promptOpen bool) bool

	// HandleMessage decodes, restores, updates and applies the effect.
	// It reports false when the text does not decode into an event.
	HandleMessage(ctx context.Context, rt *Runtime, msg domain.Message) bool
	// HandleCallback is HandleMessage for callback queries.
	HandleCallback(ctx context.Context, rt *Runtime, query domain.CallbackQuery) bool
	// Enter runs init-and-render: fresh state, rendered with EditOrReply.
	Enter(ctx context.Context, rt *Runtime, chatID int64) bool
}

type binding[S, E any] struct {
	scene    Scene[S, E]
	bindings Bindings[E]
}

// Bind erases a scene's type parameters so it can be registered with a router.
func Bind[S, E any](s Scene[S, E]) Entry {
	return &binding[S, E]{scene: s, bindings: s.Bindings()}
}

func (b *binding[S, E]) ID() string      { return b.scene.ID() }
func (b *binding[S, E]) Prefix() string  { return b.scene.Prefix() }
func (b *binding[S, E]) Version() uint16 { return b.scene.Version() }

func (b *binding[S, E]) ClaimsCallback(data string) bool {
	_, ok := domain.SplitCallbackData(b.scene.Prefix(), data)
	return ok
}

func (b *binding[S, E]) MatchesCallback(data string) bool {
	for _, m := range b.bindings.Callbacks {
		if m.Matches(b.scene.Prefix(), data) {
			return true
		}
	}
	return false
}

func (b *binding[S, E]) MatchesMessage(text string, promptOpen bool) bool {
	for _, m := range b.bindings.Messages {
		if m.FreeText() && !promptOpen {
			continue
		}
		if m.Matches(text) {
			return true
		}
	}
	return false
}

func (b *binding[S, E]) HandleMessage(ctx context.Context, rt *Runtime, msg domain.Message) bool {
	if handled, ok := b.handleInput(ctx, rt, msg); ok {
		return handled
	}

	text := msg.TextOrEmpty()
	var (
		event   E
		decoded bool
	)
	for _, m := range b.bindings.Messages {
		if event, decoded = m.Decode(text); decoded {
			break
		}
	}
	if !decoded {
		return false
	}

	// A text message continues whatever the chat last showed.
	source := rt.Sessions.Load(ctx, msg.ChatID).LastMessageID
	c := b.context(rt, msg.ChatID, nil)
	state, _ := Restore(ctx, rt, b.scene, c, source)
	return b.apply(ctx, rt, c, b.scene.Update(c, state, event))
}

// handleInput routes a reply to the chat's open prompt when the prompt's
// metadata restores into this scene. An accepted reply is deleted so the
// chat keeps showing only the menu. ok is false when the message should go
// through the regular bindings instead.
func (b *binding[S, E]) handleInput(ctx context.Context, rt *Runtime, msg domain.Message) (handled, ok bool) {
	s := rt.Sessions.Load(ctx, msg.ChatID)
	if !s.PromptOpen() || rt.Metadata == nil {
		return false, false
	}
	prompt := *s.InputPromptMessageID
	meta, err := rt.Metadata.Get(ctx, msg.ChatID, prompt)
	if err != nil {
		return false, false
	}
	state, restored := RestoreSnapshot(b.scene, meta.Snapshot())
	if !restored {
		return false, false
	}

	input, isInput := b.scene.(InputHandler[S])
	if !isInput {
		return false, false
	}
	c := b.context(rt, msg.ChatID, domain.Ptr(prompt))
	eff, accepted := input.HandleInput(c, state, msg.TextOrEmpty())
	if !accepted {
		return false, false
	}
	rt.Viewport.Delete(ctx, msg.ChatID, msg.MessageID)
	return b.apply(ctx, rt, c, eff), true
}

func (b *binding[S, E]) HandleCallback(ctx context.Context, rt *Runtime, query domain.CallbackQuery) bool {
	if query.Data == nil {
		return false
	}
	var (
		event   E
		decoded bool
	)
	for _, m := range b.bindings.Callbacks {
		if event, decoded = m.Decode(b.scene.Prefix(), *query.Data); decoded {
			break
		}
	}
	if !decoded {
		return false
	}

	source := query.OriginID()
	c := b.context(rt, query.Chat(), source)
	state, _ := Restore(ctx, rt, b.scene, c, source)
	return b.apply(ctx, rt, c, b.scene.Update(c, state, event))
}

func (b *binding[S, E]) Enter(ctx context.Context, rt *Runtime, chatID int64) bool {
	c := b.context(rt, chatID, nil)
	state := b.scene.Init(c)
	observability.Emit(ctx, rt.Observer, observability.Event{
		Type:   observability.EventRestore,
		ChatID: chatID,
		Scene:  b.scene.ID(),
		Label:  string(LabelInit),
	})
	b.stay(ctx, rt, c, state, domain.EditOrReply)
	return true
}

func (b *binding[S, E]) context(rt *Runtime, chatID int64, messageID *int32) *Context {
	return &Context{
		ChatID:    chatID,
		MessageID: messageID,
		Now:       rt.now(),
		Logger:    rt.logger().With("scene", b.scene.ID(), "chat_id", chatID),
	}
}
