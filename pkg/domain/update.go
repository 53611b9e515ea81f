package domain

// Update is one incoming event from the chat platform. Exactly one of
// Message or CallbackQuery is set; anything else is ignored.
type Update struct {
	ID            int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}
