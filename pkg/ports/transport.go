package ports

import (
	"context"

	"github.com/aretw0/stagehand/pkg/domain"
)

// Transport is the narrow view of the chat API the engine needs.
// Retries, rate limiting and request encoding belong to the implementation.
type Transport interface {
	// Send posts a new message and returns its id.
	Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (int32, error)

	// Edit replaces text and markup of an existing message.
	// It fails when the message is gone or too old to edit.
	Edit(ctx context.Context, chatID int64, messageID int32, view domain.View) error

	// Delete removes a message.
	Delete(ctx context.Context, chatID int64, messageID int32) error

	// AnswerCallback acknowledges a callback query, optionally with a toast or alert.
	AnswerCallback(ctx context.Context, callbackID string, text string, showAlert bool) error
}
