package scene

import (
	"context"
	"errors"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
)

// Label names the restore tier that produced a state.
type Label string

const (
	// LabelDialogue: restored from the session's scene hint.
	LabelDialogue Label = "dialogue"
	// LabelMeta: restored from the durable metadata record.
	LabelMeta Label = "meta"
	// LabelMismatch: a metadata record exists but was rejected; state is Init.
	LabelMismatch Label = "mismatch"
	// LabelInit: nothing recoverable; state is Init.
	LabelInit Label = "init"
)

// Snapshot serializes state with the scene's own Snapshotter, if any, or
// DefaultSnapshot.
func Snapshot[S, E any](s Scene[S, E], state S) *domain.Snapshot {
	if custom, ok := s.(Snapshotter[S]); ok {
		return custom.Snapshot(state)
	}
	return DefaultSnapshot(s.ID(), s.Version(), state)
}

// RestoreSnapshot decodes snap with the scene's own Restorer, if any, or
// DefaultRestore. The scene id check is enforced for custom restorers too.
func RestoreSnapshot[S, E any](s Scene[S, E], snap domain.Snapshot) (S, bool) {
	var zero S
	if snap.SceneID != s.ID() {
		return zero, false
	}
	if custom, ok := s.(Restorer[S]); ok {
		return custom.Restore(snap)
	}
	return DefaultRestore[S](s.ID(), s.Version(), snap)
}

// Restore reconstructs the scene's state for an event whose source message
// is source (nil when there is none).
//
// Tier 1 uses the session's scene hint when the session's last message is
// the source; tier 2 loads the metadata record for the source; otherwise the
// state comes from Init. Storage read failures count as absent.
func Restore[S, E any](ctx context.Context, rt *Runtime, s Scene[S, E], c *Context, source *int32) (S, Label) {
	state, label := restore(ctx, rt, s, c, source)
	data := map[string]any{}
	if source != nil {
		data["message_id"] = *source
	}
	observability.Emit(ctx, rt.Observer, observability.Event{
		Type:   observability.EventRestore,
		ChatID: c.ChatID,
		Scene:  s.ID(),
		Label:  string(label),
		Data:   data,
	})
	return state, label
}

func restore[S, E any](ctx context.Context, rt *Runtime, s Scene[S, E], c *Context, source *int32) (S, Label) {
	if source == nil {
		return s.Init(c), LabelInit
	}
	id := *source

	sess := rt.Sessions.Load(ctx, c.ChatID)
	if sess.IsLast(id) {
		if snap, ok := sess.SceneHint(id); ok {
			if state, ok := RestoreSnapshot(s, snap); ok {
				return state, LabelDialogue
			}
		}
	}

	if rt.Metadata == nil {
		return s.Init(c), LabelInit
	}
	meta, err := rt.Metadata.Get(ctx, c.ChatID, id)
	if err != nil {
		if !errors.Is(err, domain.ErrMetadataNotFound) {
			rt.logger().Warn("Metadata read failed, treating as absent",
				"chat_id", c.ChatID,
				"message_id", id,
				"err", err,
			)
		}
		return s.Init(c), LabelInit
	}
	if state, ok := RestoreSnapshot(s, meta.Snapshot()); ok {
		return state, LabelMeta
	}
	return s.Init(c), LabelMismatch
}
