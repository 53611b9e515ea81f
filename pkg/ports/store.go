package ports

import (
	"context"

	"github.com/aretw0/stagehand/pkg/domain"
)

// SessionStore persists per-chat Session records.
// Records are replaced whole; implementations need no partial updates.
type SessionStore interface {
	// Load retrieves the session for a chat.
	// Returns domain.ErrSessionNotFound if the chat has no session.
	Load(ctx context.Context, chatID int64) (*domain.Session, error)

	// Save replaces the session for a chat.
	Save(ctx context.Context, chatID int64, session *domain.Session) error

	// Delete removes the session for a chat.
	Delete(ctx context.Context, chatID int64) error
}

// MetadataStore persists per-message MessageMetadata records.
// The backend owns expiry: a record past its TTL must not be returned.
type MetadataStore interface {
	// Get retrieves the record for a message.
	// Returns domain.ErrMetadataNotFound if absent or expired.
	Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error)

	// Put writes (or replaces) the record for a message.
	Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error

	// Delete removes the record for a message.
	Delete(ctx context.Context, chatID int64, messageID int32) error
}
