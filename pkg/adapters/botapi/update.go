package botapi

import (
	"encoding/json"

	"github.com/aretw0/stagehand/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func toMessage(m *tgbotapi.Message) *domain.Message {
	if m == nil || m.Chat == nil {
		return nil
	}
	msg := &domain.Message{ChatID: m.Chat.ID, MessageID: int32(m.MessageID)}
	if m.Text != "" {
		msg.Text = domain.Ptr(m.Text)
	}
	return msg
}

// DecodeUpdate converts a Bot API update into the domain form. Update kinds
// the router does not consume decode to an Update with neither field set.
// A callback without its message falls back to the sender's private chat.
func DecodeUpdate(data []byte) (domain.Update, error) {
	var w tgbotapi.Update
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Update{}, err
	}
	u := domain.Update{ID: int64(w.UpdateID), Message: toMessage(w.Message)}
	if cq := w.CallbackQuery; cq != nil {
		q := domain.CallbackQuery{
			ID:     cq.ID,
			Origin: toMessage(cq.Message),
		}
		if cq.From != nil {
			q.ChatID = cq.From.ID
		}
		if cq.Data != "" {
			q.Data = domain.Ptr(cq.Data)
		}
		u.CallbackQuery = &q
	}
	return u, nil
}
