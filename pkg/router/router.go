package router

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/scene"
	"github.com/aretw0/stagehand/pkg/session"
	"github.com/aretw0/stagehand/pkg/viewport"
)

// StaleMenuText is the default alert for callbacks no scene claims.
const StaleMenuText = "This menu is no longer active. Send /start to begin again."

// SceneInfo describes a registered scene.
type SceneInfo struct {
	ID      string `json:"id"`
	Prefix  string `json:"prefix"`
	Version uint16 `json:"version"`
}

// Router dispatches messages and callback queries to scenes.
type Router struct {
	entries []scene.Entry
	byID    map[string]scene.Entry

	transport ports.Transport
	sessions  *session.Manager
	metadata  ports.MetadataStore
	viewport  *viewport.Viewport
	scheduler ports.Scheduler
	rt        *scene.Runtime

	logger      *slog.Logger
	observer    observability.Observer
	now         func() time.Time
	metadataTTL time.Duration
	unhandled   UnhandledMessageFunc
	staleText   string
}

// Scenes lists the registered scenes in registration order.
func (r *Router) Scenes() []SceneInfo {
	out := make([]SceneInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, SceneInfo{ID: e.ID(), Prefix: e.Prefix(), Version: e.Version()})
	}
	return out
}

// Sessions exposes the session manager, e.g. for CLI inspection.
func (r *Router) Sessions() *session.Manager {
	return r.sessions
}

// Enter starts sceneID in chatID with fresh state, rendered with EditOrReply.
// It reports false, leaving the session untouched, for unknown ids.
func (r *Router) Enter(ctx context.Context, chatID int64, sceneID string) bool {
	e, ok := r.byID[sceneID]
	if !ok {
		r.logger.Warn("Unknown scene", "chat_id", chatID, "scene", sceneID)
		return false
	}
	return e.Enter(ctx, r.rt, chatID)
}

// Switch is Enter as triggered by a SwitchScene effect.
func (r *Router) Switch(ctx context.Context, chatID int64, sceneID string) bool {
	return r.Enter(ctx, chatID, sceneID)
}

// Dispatch routes an update to HandleMessage or HandleCallback.
func (r *Router) Dispatch(ctx context.Context, update domain.Update) bool {
	switch {
	case update.CallbackQuery != nil:
		return r.HandleCallback(ctx, *update.CallbackQuery)
	case update.Message != nil:
		return r.HandleMessage(ctx, *update.Message)
	default:
		r.logger.Debug("Ignoring empty update", "update_id", update.ID)
		return false
	}
}

// HandleMessage dispatches a text message. A chat with an active scene hands
// the message to that scene only. Otherwise it tries the scene that rendered
// the chat's last message, and then every scene's matchers in registration
// order. Free-text matchers only fire in that last scan while an input
// prompt is open.
//
// It reports false when nothing handled the message, after invoking the
// unhandled-message hook if one is set.
func (r *Router) HandleMessage(ctx context.Context, msg domain.Message) bool {
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   observability.EventMessage,
		ChatID: msg.ChatID,
	})

	s := r.sessions.Load(ctx, msg.ChatID)
	tried := make(map[string]bool, len(r.entries))
	try := func(id string) bool {
		e, ok := r.byID[id]
		if !ok || tried[id] {
			return false
		}
		tried[id] = true
		return e.HandleMessage(ctx, r.rt, msg)
	}

	if id, ok := s.ActiveScene(); ok {
		if try(id) {
			return true
		}
		return r.unhandledMessage(ctx, msg)
	}
	if s.LastMessageID != nil {
		if hint, ok := s.SceneHint(*s.LastMessageID); ok && try(hint.SceneID) {
			return true
		}
	}

	text := msg.TextOrEmpty()
	promptOpen := s.PromptOpen()
	for _, e := range r.entries {
		if tried[e.ID()] || !e.MatchesMessage(text, promptOpen) {
			continue
		}
		if try(e.ID()) {
			return true
		}
	}
	return r.unhandledMessage(ctx, msg)
}

func (r *Router) unhandledMessage(ctx context.Context, msg domain.Message) bool {
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   observability.EventUnhandled,
		ChatID: msg.ChatID,
	})
	r.logger.Debug("Unhandled message", "chat_id", msg.ChatID, "message_id", msg.MessageID)
	if r.unhandled != nil {
		r.unhandled(ctx, msg)
	}
	return false
}

// HandleCallback dispatches a callback query and always answers it. It
// reports whether a scene or a reserved control handled the payload.
func (r *Router) HandleCallback(ctx context.Context, q domain.CallbackQuery) bool {
	chatID := q.Chat()
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   observability.EventCallback,
		ChatID: chatID,
	})

	if q.Data == nil || !domain.ValidCallbackData(*q.Data) {
		observability.Emit(ctx, r.observer, observability.Event{
			Type:   observability.EventRejected,
			Level:  observability.LevelWarning,
			ChatID: chatID,
		})
		r.logger.Debug("Rejected callback payload", "chat_id", chatID, "callback_id", q.ID)
		r.answer(ctx, q, "", false)
		return false
	}
	data := *q.Data

	if domain.IsReservedCallback(data) {
		r.control(ctx, q, data)
		r.answer(ctx, q, "", false)
		return true
	}

	r.activate(ctx, q, data)

	if e := r.resolve(data); e != nil && e.HandleCallback(ctx, r.rt, q) {
		r.answer(ctx, q, "", false)
		return true
	}

	observability.Emit(ctx, r.observer, observability.Event{
		Type:   observability.EventStaleMenu,
		ChatID: chatID,
	})
	r.answer(ctx, q, r.staleText, true)
	return false
}

// resolve finds the scene owning data: by callback prefix first, then by
// scanning each scene's callback matchers.
func (r *Router) resolve(data string) scene.Entry {
	for _, e := range r.entries {
		if e.ClaimsCallback(data) {
			return e
		}
	}
	for _, e := range r.entries {
		if e.MatchesCallback(data) {
			return e
		}
	}
	return nil
}

// activate adopts the callback's origin message as the chat's last-action
// message when it is neither the open prompt nor the tracked last message,
// and records which scene owns it.
func (r *Router) activate(ctx context.Context, q domain.CallbackQuery, data string) {
	origin := q.OriginID()
	if origin == nil {
		return
	}
	id := *origin
	chatID := q.Chat()

	r.sessions.Update(ctx, chatID, func(s *domain.Session) bool {
		if s.IsTracked(id) {
			return false
		}
		s.LastMessageID = domain.Ptr(id)
		s.ReplyToLastOnce = true

		if snap, ok := r.ownerFromMetadata(ctx, chatID, id); ok {
			if hint, err := domain.EncodeSceneHint(snap); err == nil {
				s.SetSceneHint(id, hint)
			}
			s.ActiveSceneID = domain.Ptr(snap.SceneID)
			return true
		}
		if e := r.resolve(data); e != nil {
			s.ActiveSceneID = domain.Ptr(e.ID())
		}
		return true
	})
}

func (r *Router) ownerFromMetadata(ctx context.Context, chatID int64, messageID int32) (domain.Snapshot, bool) {
	if r.metadata == nil {
		return domain.Snapshot{}, false
	}
	meta, err := r.metadata.Get(ctx, chatID, messageID)
	if err != nil {
		if !errors.Is(err, domain.ErrMetadataNotFound) {
			r.logger.Warn("Metadata read failed, treating as absent",
				"chat_id", chatID,
				"message_id", messageID,
				"err", err,
			)
		}
		return domain.Snapshot{}, false
	}
	snap := meta.Snapshot()
	if _, known := r.byID[snap.SceneID]; !known {
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (r *Router) deleteMessage(ctx context.Context, msg domain.Message) {
	r.viewport.Delete(ctx, msg.ChatID, msg.MessageID)
}

func (r *Router) answer(ctx context.Context, q domain.CallbackQuery, text string, alert bool) {
	if err := r.transport.AnswerCallback(ctx, q.ID, text, alert); err != nil {
		r.logger.Warn("Callback answer failed",
			"chat_id", q.Chat(),
			"callback_id", q.ID,
			"err", err,
		)
	}
}
