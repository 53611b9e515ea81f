// Package viewport decides how a rendered view reaches the chat and remembers
// which scene and state produced each message.
package viewport

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/stagehand/internal/logging"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/session"
)

// CloseButtonText labels the control row appended to input prompts.
const CloseButtonText = "✖ Close"

// Viewport applies render policies and persists per-message metadata.
type Viewport struct {
	transport ports.Transport
	sessions  *session.Manager
	metadata  ports.MetadataStore
	logger    *slog.Logger
	observer  observability.Observer
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithLogger sets the logger for transport and storage warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewport) {
		v.logger = logger
	}
}

// WithObserver sets the observer receiving render events.
func WithObserver(obs observability.Observer) Option {
	return func(v *Viewport) {
		v.observer = obs
	}
}

// WithMetadataTTL sets the lifetime of written metadata records.
func WithMetadataTTL(ttl time.Duration) Option {
	return func(v *Viewport) {
		v.ttl = ttl
	}
}

// WithClock overrides the clock used to stamp metadata records.
func WithClock(now func() time.Time) Option {
	return func(v *Viewport) {
		v.now = now
	}
}

// New creates a Viewport.
func New(transport ports.Transport, sessions *session.Manager, metadata ports.MetadataStore, opts ...Option) *Viewport {
	v := &Viewport{
		transport: transport,
		sessions:  sessions,
		metadata:  metadata,
		logger:    logging.NewNop(),
		observer:  observability.NoOpObserver{},
		ttl:       domain.DefaultMetadataTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Apply renders view for the chat under policy. When snap is non-nil the
// resulting message is recorded in the session hint map and the metadata
// store. It returns the id of the message now showing the view and whether
// anything reached the chat. Failures are logged, never returned.
func (v *Viewport) Apply(ctx context.Context, chatID int64, view domain.View, policy domain.RenderPolicy, snap *domain.Snapshot) (int32, bool) {
	s := v.sessions.Load(ctx, chatID)
	changed := false

	var (
		id int32
		ok bool
	)
	switch policy {
	case domain.EditOnly:
		id, ok = v.editOnly(ctx, chatID, s, view)
	case domain.SendNew:
		id, ok, changed = v.sendNew(ctx, chatID, s, view)
	default:
		id, ok, changed = v.editOrReply(ctx, chatID, s, view)
	}

	if !ok {
		if changed {
			_ = v.sessions.Save(ctx, chatID, s)
		}
		return 0, false
	}

	observability.Emit(ctx, v.observer, observability.Event{
		Type:   observability.EventRender,
		ChatID: chatID,
		Scene:  sceneOf(snap),
		Label:  policy.String(),
		Data:   map[string]any{"message_id": id},
	})

	if snap != nil {
		v.persist(ctx, chatID, id, s, *snap)
		changed = true
	}
	if changed {
		_ = v.sessions.Save(ctx, chatID, s)
	}
	return id, true
}

func (v *Viewport) editOrReply(ctx context.Context, chatID int64, s *domain.Session, view domain.View) (int32, bool, bool) {
	if s.LastMessageID != nil {
		id := *s.LastMessageID
		err := v.transport.Edit(ctx, chatID, id, view)
		if err == nil {
			return id, true, false
		}
		v.logger.Info("Edit failed, sending a new message",
			"chat_id", chatID,
			"message_id", id,
			"err", err,
		)
	}

	id, err := v.transport.Send(ctx, chatID, domain.OutgoingMessage{View: view})
	if err != nil {
		v.fail(ctx, chatID, domain.EditOrReply, err)
		return 0, false, false
	}
	s.LastMessageID = domain.Ptr(id)
	return id, true, true
}

func (v *Viewport) editOnly(ctx context.Context, chatID int64, s *domain.Session, view domain.View) (int32, bool) {
	if s.LastMessageID == nil {
		v.logger.Debug("Edit skipped, no tracked message", "chat_id", chatID)
		return 0, false
	}
	id := *s.LastMessageID
	if err := v.transport.Edit(ctx, chatID, id, view); err != nil {
		v.logger.Info("Edit skipped",
			"chat_id", chatID,
			"message_id", id,
			"err", err,
		)
		return 0, false
	}
	return id, true
}

func (v *Viewport) sendNew(ctx context.Context, chatID int64, s *domain.Session, view domain.View) (int32, bool, bool) {
	changed := v.clearPrompt(ctx, chatID, s)

	if !view.Markup.Empty() {
		id, err := v.transport.Send(ctx, chatID, domain.OutgoingMessage{View: view})
		if err != nil {
			v.fail(ctx, chatID, domain.SendNew, err)
			return 0, false, changed
		}
		s.LastMessageID = domain.Ptr(id)
		return id, true, true
	}

	// Input prompt: closable, optionally replying to the message the user acted on.
	msg := domain.OutgoingMessage{View: view}
	msg.Markup = view.Markup.WithRow(domain.CallbackButton(CloseButtonText, domain.CallbackCancel))
	if s.ReplyToLastOnce && s.LastMessageID != nil {
		msg.ReplyTo = domain.Ptr(*s.LastMessageID)
	}

	id, err := v.transport.Send(ctx, chatID, msg)
	if err != nil {
		v.fail(ctx, chatID, domain.SendNew, err)
		return 0, false, changed
	}
	s.ReplyToLastOnce = false
	s.InputPromptMessageID = domain.Ptr(id)
	return id, true, true
}

// persist records the snapshot under the message id in both indices. The
// metadata write is skipped when the viewport has no metadata store.
func (v *Viewport) persist(ctx context.Context, chatID int64, id int32, s *domain.Session, snap domain.Snapshot) {
	hint, err := domain.EncodeSceneHint(snap)
	if err != nil {
		v.logger.Warn("Scene hint encoding failed", "chat_id", chatID, "message_id", id, "err", err)
	} else {
		s.SetSceneHint(id, hint)
	}

	if v.metadata == nil {
		return
	}
	meta := domain.MetadataFromSnapshot(snap, v.now(), v.ttl)
	if err := v.metadata.Put(ctx, chatID, id, meta); err != nil {
		v.logger.Warn("Metadata write failed",
			"chat_id", chatID,
			"message_id", id,
			"scene", snap.SceneID,
			"err", err,
		)
		observability.Emit(ctx, v.observer, observability.Event{
			Type:   observability.EventPersistFail,
			Level:  observability.LevelWarning,
			ChatID: chatID,
			Scene:  snap.SceneID,
		})
	}
}

// ClearPrompt deletes the chat's open input prompt, if any, and forgets it.
// It reports whether a prompt was tracked.
func (v *Viewport) ClearPrompt(ctx context.Context, chatID int64) bool {
	cleared := false
	v.sessions.Update(ctx, chatID, func(s *domain.Session) bool {
		cleared = v.clearPrompt(ctx, chatID, s)
		return cleared
	})
	return cleared
}

func (v *Viewport) clearPrompt(ctx context.Context, chatID int64, s *domain.Session) bool {
	if s.InputPromptMessageID == nil {
		return false
	}
	v.Delete(ctx, chatID, *s.InputPromptMessageID)
	s.InputPromptMessageID = nil
	return true
}

// Delete removes a message, logging failures.
func (v *Viewport) Delete(ctx context.Context, chatID int64, messageID int32) bool {
	if err := v.transport.Delete(ctx, chatID, messageID); err != nil {
		v.logger.Warn("Delete failed",
			"chat_id", chatID,
			"message_id", messageID,
			"err", err,
		)
		return false
	}
	return true
}

func (v *Viewport) fail(ctx context.Context, chatID int64, policy domain.RenderPolicy, err error) {
	v.logger.Warn("Render failed, nothing shown this turn",
		"chat_id", chatID,
		"policy", policy.String(),
		"err", err,
	)
	observability.Emit(ctx, v.observer, observability.Event{
		Type:   observability.EventRenderFailed,
		Level:  observability.LevelWarning,
		ChatID: chatID,
		Label:  policy.String(),
	})
}

func sceneOf(snap *domain.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.SceneID
}
