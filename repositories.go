package ntfy

import (
	"context"

	"github.com/coregx/ntfy/model"
)

// WatermarkStore persists the resume point of each subscription key.
//
// Implementations must be safe for concurrent use.
type WatermarkStore interface {
	// Load retrieves the watermark stored under key.
	// Returns ErrNoData if none exists.
	Load(ctx context.Context, key string) (model.Watermark, error)

	// Save creates a new watermark (if ID=0) or updates an existing one.
	// Returns the saved watermark with populated ID.
	Save(ctx context.Context, w model.Watermark) (model.Watermark, error)

	// Delete removes the watermark stored under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// MessageArchive stores delivered messages for later inspection.
//
// Implementations must be safe for concurrent use.
type MessageArchive interface {
	// Save stores a message. Saving a message ID that is already archived
	// returns the existing record.
	Save(ctx context.Context, m model.ArchivedMessage) (model.ArchivedMessage, error)

	// FindByMessageID retrieves an archived message by its server-assigned ID.
	// Returns ErrNoData if not found.
	FindByMessageID(ctx context.Context, messageID string) (model.ArchivedMessage, error)

	// FindByTopic retrieves the most recent messages of a topic, newest first.
	// Returns empty slice if none found.
	FindByTopic(ctx context.Context, topic string, limit int) ([]model.ArchivedMessage, error)
}
