package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermark_TableName(t *testing.T) {
	assert.Equal(t, "ntfy_watermark", Watermark{}.TableName())
	assert.Equal(t, "ntfy_message", ArchivedMessage{}.TableName())
}

func TestNewWatermark(t *testing.T) {
	w := NewWatermark("alerts", Message{ID: "m1", Time: 100})

	assert.Equal(t, int64(0), w.ID)
	assert.Equal(t, "alerts", w.SubscriptionKey)
	assert.Equal(t, "m1", w.MessageID)
	assert.Equal(t, int64(100), w.MessageTime)
	assert.InDelta(t, time.Now().Unix(), w.UpdatedAt, 1)
}

func TestWatermark_Advance(t *testing.T) {
	w := NewWatermark("alerts", Message{ID: "m1", Time: 100})
	w.ID = 7

	w.Advance(Message{ID: "m2", Time: 200})

	assert.Equal(t, int64(7), w.ID)
	assert.Equal(t, "m2", w.MessageID)
	assert.Equal(t, int64(200), w.MessageTime)
}

func TestArchivedMessage_RoundTrip(t *testing.T) {
	m := Message{ID: "m1", Time: 100, Event: EventMessage, Topic: "alerts", Title: "T", Message: "body", Tags: []string{"a", "b"}, Priority: 4}

	a, err := NewArchivedMessage(m)
	require.NoError(t, err)

	assert.Equal(t, "m1", a.MessageID)
	assert.Equal(t, "alerts", a.Topic)
	assert.Equal(t, "message", a.Event)
	assert.Equal(t, "body", a.Body)
	assert.Equal(t, "a,b", a.Tags)

	decoded, err := a.Decode()
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}
