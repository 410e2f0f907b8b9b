package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind ParseErrorKind
		check    func(t *testing.T, m Message)
	}{
		{
			name: "Full message",
			raw:  `{"id":"sPs71M8A2T","time":1643138845,"event":"message","topic":"alerts","title":"Disk","message":"Disk full","tags":["warning","db"],"priority":4}`,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, "sPs71M8A2T", m.ID)
				assert.Equal(t, int64(1643138845), m.Time)
				assert.Equal(t, EventMessage, m.Event)
				assert.Equal(t, "alerts", m.Topic)
				assert.Equal(t, "Disk", m.Title)
				assert.Equal(t, "Disk full", m.Message)
				assert.Equal(t, []string{"warning", "db"}, m.Tags)
				assert.Equal(t, 4, m.Priority)
			},
		},
		{
			name: "Open event",
			raw:  `{"id":"hwQ2YpKdmg","time":1635528741,"event":"open","topic":"mytopic"}`,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, EventOpen, m.Event)
				assert.Empty(t, m.Message)
			},
		},
		{
			name: "Keepalive",
			raw:  `{"id":"VNxNIg5fpt","time":1635528757,"event":"keepalive","topic":"mytopic"}`,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, EventKeepalive, m.Event)
			},
		},
		{
			name: "Attachment and actions",
			raw:  `{"id":"a1","time":1,"event":"message","topic":"t","attachment":{"name":"flower.jpg","url":"https://example.com/flower.jpg","size":1024},"actions":[{"action":"view","label":"Open","url":"https://example.com"}]}`,
			check: func(t *testing.T, m Message) {
				require.NotNil(t, m.Attachment)
				assert.Equal(t, "flower.jpg", m.Attachment.Name)
				assert.Equal(t, int64(1024), m.Attachment.Size)
				require.Len(t, m.Actions, 1)
				assert.Equal(t, ActionView, m.Actions[0].Action)
			},
		},
		{
			name:     "Malformed JSON",
			raw:      `{"id":"x","event":`,
			wantKind: ParseErrorMalformedJSON,
		},
		{
			name:     "Not an object",
			raw:      `"hello"`,
			wantKind: ParseErrorMalformedJSON,
		},
		{
			name:     "Missing event",
			raw:      `{"id":"x","topic":"t"}`,
			wantKind: ParseErrorMalformedJSON,
		},
		{
			name:     "Unknown event",
			raw:      `{"id":"x","event":"message_delete","topic":"t"}`,
			wantKind: ParseErrorUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMessage([]byte(tt.raw))
			if tt.wantKind != 0 {
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.wantKind, perr.Kind)
				assert.Equal(t, tt.raw, string(perr.Raw))
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestParseMessage_UnknownEventName(t *testing.T) {
	_, err := ParseMessage([]byte(`{"event":"message_clear"}`))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "message_clear", perr.Event)
	assert.Equal(t, `unknown event "message_clear"`, perr.Error())
	assert.Equal(t, "unknown_event", perr.Kind.String())
}

func TestParseError_TruncatesRaw(t *testing.T) {
	raw := make([]byte, 1000)
	for i := range raw {
		raw[i] = 'x'
	}

	perr := NewMalformedError(raw, nil)

	assert.Len(t, perr.Raw, maxRawInError)
	assert.Equal(t, "malformed record", perr.Error())
	raw[0] = 'y'
	assert.Equal(t, byte('x'), perr.Raw[0])
}

func TestMessage_EffectivePriority(t *testing.T) {
	assert.Equal(t, DefaultPriority, Message{}.EffectivePriority())
	assert.Equal(t, 5, Message{Priority: 5}.EffectivePriority())
}

func TestMessage_HasTag(t *testing.T) {
	m := Message{Tags: []string{"warning", "db"}}

	assert.True(t, m.HasTag("db"))
	assert.False(t, m.HasTag("info"))
	assert.False(t, Message{}.HasTag("db"))
}

func TestMessage_String(t *testing.T) {
	m := Message{ID: "abc", Event: EventMessage, Topic: "alerts", Title: "Disk", Message: "full"}

	assert.Equal(t, `message[abc] alerts "Disk": full`, m.String())
	assert.True(t, Message{ContentType: "text/markdown"}.IsMarkdown())
}

func TestEvent_Known(t *testing.T) {
	for _, e := range []Event{EventOpen, EventKeepalive, EventMessage, EventPollRequest} {
		assert.True(t, e.Known(), e)
	}
	assert.False(t, Event("message_delete").Known())
	assert.False(t, Event("").Known())
}
