package domain

// Message is an incoming (or tracked) chat message.
type Message struct {
	ChatID    int64   `json:"chat_id"`
	MessageID int32   `json:"message_id"`
	Text      *string `json:"text,omitempty"`
}

// TextOrEmpty returns the message text, or "" for non-text messages.
func (m Message) TextOrEmpty() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// CallbackQuery is emitted when the user presses an inline button.
type CallbackQuery struct {
	ID     string   `json:"id"`
	ChatID int64    `json:"chat_id"`
	Data   *string  `json:"data,omitempty"`
	Origin *Message `json:"message,omitempty"`
}

// Chat returns the chat the query belongs to, preferring the originating message.
func (q CallbackQuery) Chat() int64 {
	if q.Origin != nil {
		return q.Origin.ChatID
	}
	return q.ChatID
}

// OriginID returns the id of the message carrying the pressed button, if known.
func (q CallbackQuery) OriginID() *int32 {
	if q.Origin == nil {
		return nil
	}
	id := q.Origin.MessageID
	return &id
}

// Ptr returns a pointer to v. Handy for the many optional fields of the model.
func Ptr[T any](v T) *T {
	return &v
}
