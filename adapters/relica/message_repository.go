package relica

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/model"
	"github.com/coregx/relica"
)

// MessageRepository implements ntfy.MessageArchive using Relica.
type MessageRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewMessageRepository creates a new MessageRepository with default table prefix.
func NewMessageRepository(sqlDB *sql.DB, driverName string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: DefaultTablePrefix}
}

// NewMessageRepositoryWithPrefix creates a new MessageRepository with custom table prefix.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *MessageRepository) tableName() string {
	return r.tablePrefix + "message"
}

// Save stores a message unless its message ID is already archived.
func (r *MessageRepository) Save(ctx context.Context, m model.ArchivedMessage) (model.ArchivedMessage, error) {
	existing, err := r.FindByMessageID(ctx, m.MessageID)
	if err == nil {
		return existing, nil
	}
	if !ntfy.IsNoData(err) {
		return m, err
	}

	// m.ID is auto-populated by Model().Insert()
	err = r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
	if err != nil {
		return m, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to insert message", err)
	}
	return m, nil
}

// FindByMessageID retrieves an archived message by its server-assigned ID.
func (r *MessageRepository) FindByMessageID(ctx context.Context, messageID string) (model.ArchivedMessage, error) {
	var msg model.ArchivedMessage
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("message_id = ?", messageID).One(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return msg, ntfy.ErrNoData
	}
	if err != nil {
		return msg, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to load message", err)
	}
	return msg, nil
}

// FindByTopic retrieves the most recent messages of a topic, newest first.
// A limit <= 0 returns all of them.
func (r *MessageRepository) FindByTopic(ctx context.Context, topic string, limit int) ([]model.ArchivedMessage, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	var messages []model.ArchivedMessage
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("topic = ?", topic).
		OrderBy("sent_at DESC").
		Limit(int64(limit)).
		All(&messages)
	if err != nil {
		return nil, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to find messages by topic", err)
	}
	return messages, nil
}

// DeleteOlderThan removes messages sent before the given Unix time and
// returns how many were removed.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, before int64) (int64, error) {
	var old []model.ArchivedMessage
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("sent_at < ?", before).
		All(&old)
	if err != nil {
		return 0, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to find old messages", err)
	}

	var n int64
	for i := range old {
		// Delete using Model() API - auto WHERE id = ?
		if err := r.db.WithContext(ctx).Model(&old[i]).Table(r.tableName()).Delete(); err != nil {
			return n, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to delete message", err)
		}
		n++
	}
	return n, nil
}
