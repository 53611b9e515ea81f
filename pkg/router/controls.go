package router

import (
	"context"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
)

// control handles a reserved "ui:*" payload. The caller answers the query.
func (r *Router) control(ctx context.Context, q domain.CallbackQuery, data string) {
	chatID := q.Chat()
	origin := q.OriginID()
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   observability.EventControl,
		ChatID: chatID,
		Label:  data,
	})

	switch data {
	case domain.CallbackCancel:
		var prompt *int32
		r.sessions.Update(ctx, chatID, func(s *domain.Session) bool {
			if s.InputPromptMessageID == nil {
				return false
			}
			prompt = s.InputPromptMessageID
			s.InputPromptMessageID = nil
			return true
		})
		if prompt != nil {
			r.viewport.Delete(ctx, chatID, *prompt)
		}
		if origin != nil && (prompt == nil || *prompt != *origin) {
			r.viewport.Delete(ctx, chatID, *origin)
		}
	case domain.CallbackHide:
		if origin != nil {
			r.viewport.Delete(ctx, chatID, *origin)
		}
	case domain.CallbackBack:
		if id, ok := r.sessions.Load(ctx, chatID).ActiveScene(); ok {
			r.Enter(ctx, chatID, id)
		}
	case domain.CallbackDisableNotifications, domain.CallbackDisableInfoNotifications:
		// Acknowledged only.
	}
}
