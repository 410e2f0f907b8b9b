package model

import "time"

// Watermark records the last message delivered on a subscription so that a
// restarted subscriber can resume without gaps or duplicates.
type Watermark struct {
	ID              int64  `json:"id" db:"id"`
	SubscriptionKey string `json:"subscriptionKey" db:"subscription_key"` // Topics plus filter fingerprint
	MessageID       string `json:"messageID" db:"message_id"`             // Last delivered message
	MessageTime     int64  `json:"messageTime" db:"message_time"`         // Unix seconds of that message
	UpdatedAt       int64  `json:"updatedAt" db:"updated_at"`             // Unix seconds
}

// TableName returns the database table name for Watermark.
func (w Watermark) TableName() string {
	return tablePrefix + "watermark"
}

// NewWatermark creates a watermark pointing at m.
func NewWatermark(key string, m Message) Watermark {
	return Watermark{
		SubscriptionKey: key,
		MessageID:       m.ID,
		MessageTime:     m.Time,
		UpdatedAt:       time.Now().Unix(),
	}
}

// Advance moves the watermark to m, keeping the row identity.
func (w *Watermark) Advance(m Message) {
	w.MessageID = m.ID
	w.MessageTime = m.Time
	w.UpdatedAt = time.Now().Unix()
}
