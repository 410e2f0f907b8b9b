package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ArchivedMessage is a received message stored for later inspection.
// The full message is kept as JSON in Payload; the other columns exist
// for querying.
type ArchivedMessage struct {
	ID         int64  `json:"id" db:"id"`
	MessageID  string `json:"messageID" db:"message_id"`
	Topic      string `json:"topic" db:"topic"`
	Event      string `json:"event" db:"event"`
	Time       int64  `json:"time" db:"sent_at"`
	Title      string `json:"title" db:"title"`
	Body       string `json:"body" db:"body"`
	Priority   int    `json:"priority" db:"priority"`
	Tags       string `json:"tags" db:"tags"` // Comma-separated
	Payload    string `json:"payload" db:"payload"`
	ArchivedAt int64  `json:"archivedAt" db:"archived_at"`
}

// TableName returns the database table name for ArchivedMessage.
func (a ArchivedMessage) TableName() string {
	return tablePrefix + "message"
}

// NewArchivedMessage converts m into its stored form.
func NewArchivedMessage(m Message) (ArchivedMessage, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return ArchivedMessage{}, err
	}
	return ArchivedMessage{
		MessageID:  m.ID,
		Topic:      m.Topic,
		Event:      string(m.Event),
		Time:       m.Time,
		Title:      m.Title,
		Body:       m.Message,
		Priority:   m.Priority,
		Tags:       strings.Join(m.Tags, ","),
		Payload:    string(payload),
		ArchivedAt: time.Now().Unix(),
	}, nil
}

// Decode returns the stored message.
func (a ArchivedMessage) Decode() (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(a.Payload), &m); err != nil {
		return Message{}, err
	}
	return m, nil
}
