package scene

import (
	"context"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
)

// Labels of the controls attached to notifications.
const (
	DisableNotificationsText = "🔕"
	HideText                 = "✖ Hide"
)

// apply executes an effect. It reports false only for a switch to an
// unknown scene.
func (b *binding[S, E]) apply(ctx context.Context, rt *Runtime, c *Context, eff Effect[S]) bool {
	switch eff.Kind() {
	case KindStay:
		b.stay(ctx, rt, c, eff.State(), eff.Policy())
		runSideEffects(ctx, rt, c, eff.SideEffects())
		return true
	case KindSwitch:
		observability.Emit(ctx, rt.Observer, observability.Event{
			Type:   observability.EventSwitch,
			ChatID: c.ChatID,
			Scene:  b.scene.ID(),
			Label:  eff.Target(),
		})
		if rt.Switch == nil {
			return false
		}
		return rt.Switch(ctx, c.ChatID, eff.Target())
	default:
		runSideEffects(ctx, rt, c, eff.SideEffects())
		return true
	}
}

// stay marks the scene active (before rendering, so concurrent readers see
// the transition), then hands view and snapshot to the viewport.
func (b *binding[S, E]) stay(ctx context.Context, rt *Runtime, c *Context, state S, policy domain.RenderPolicy) {
	view := b.scene.Render(c, state)

	id := b.scene.ID()
	rt.Sessions.Update(ctx, c.ChatID, func(s *domain.Session) bool {
		if current, ok := s.ActiveScene(); ok && current == id {
			return false
		}
		s.ActiveSceneID = domain.Ptr(id)
		return true
	})

	rt.Viewport.Apply(ctx, c.ChatID, view, policy, Snapshot(b.scene, state))
}

func runSideEffects(ctx context.Context, rt *Runtime, c *Context, effects []SideEffect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case Notification:
			notify(ctx, rt, c.ChatID, e)
		case ClearPrompt:
			rt.Viewport.ClearPrompt(ctx, c.ChatID)
		}
		observability.Emit(ctx, rt.Observer, observability.Event{
			Type:   observability.EventSideEffect,
			ChatID: c.ChatID,
			Label:  sideEffectName(effect),
		})
	}
}

func notify(ctx context.Context, rt *Runtime, chatID int64, n Notification) {
	msg := domain.OutgoingMessage{View: domain.View{
		Text:   domain.EscapeMarkdownV2(n.Text),
		Format: domain.FormatMarkdownV2,
		Markup: domain.NewMarkup(domain.Row(
			domain.CallbackButton(DisableNotificationsText, domain.CallbackDisableNotifications),
			domain.CallbackButton(HideText, domain.CallbackHide),
		)),
	}}
	id, err := rt.Transport.Send(ctx, chatID, msg)
	if err != nil {
		rt.logger().Warn("Notification failed", "chat_id", chatID, "err", err)
		return
	}
	if n.TTL <= 0 || rt.Scheduler == nil {
		return
	}

	logger := rt.logger()
	transport := rt.Transport
	rt.Scheduler.After(n.TTL, func(ctx context.Context) {
		if err := transport.Delete(ctx, chatID, id); err != nil {
			logger.Warn("Notification cleanup failed",
				"chat_id", chatID,
				"message_id", id,
				"err", err,
			)
		}
	})
}

func sideEffectName(effect SideEffect) string {
	switch effect.(type) {
	case Notification:
		return "notification"
	case ClearPrompt:
		return "clear_prompt"
	default:
		return "unknown"
	}
}
