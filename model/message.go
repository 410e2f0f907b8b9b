package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is the kind of record sent on a subscription stream.
type Event string

// Stream events understood by the client.
const (
	EventOpen        Event = "open"
	EventKeepalive   Event = "keepalive"
	EventMessage     Event = "message"
	EventPollRequest Event = "poll_request"
)

// Known reports whether e is one of the events the client understands.
func (e Event) Known() bool {
	switch e {
	case EventOpen, EventKeepalive, EventMessage, EventPollRequest:
		return true
	}
	return false
}

// DefaultPriority is the priority the server assumes when a message carries none.
const DefaultPriority = 3

// Attachment describes a file attached to a message.
type Attachment struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Type    string `json:"type,omitempty"`    // MIME type
	Size    int64  `json:"size,omitempty"`    // Size in bytes
	Expires int64  `json:"expires,omitempty"` // Unix seconds, 0 = never
}

// Message is a single record received from a topic stream.
//
// Messages are values: the subscription engine hands every consumer its own
// copy and never touches it again after delivery.
type Message struct {
	ID          string      `json:"id"`
	Time        int64       `json:"time"`              // Unix seconds
	Expires     int64       `json:"expires,omitempty"` // Unix seconds, 0 = not cached
	Event       Event       `json:"event"`
	Topic       string      `json:"topic"`
	Title       string      `json:"title,omitempty"`
	Message     string      `json:"message,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Priority    int         `json:"priority,omitempty"` // 1..5, 0 = absent
	Click       string      `json:"click,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Actions     []Action    `json:"actions,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
}

// EffectivePriority returns the priority, substituting DefaultPriority when absent.
func (m Message) EffectivePriority() int {
	if m.Priority == 0 {
		return DefaultPriority
	}
	return m.Priority
}

// IsMarkdown reports whether the body should be rendered as Markdown.
func (m Message) IsMarkdown() bool {
	return m.ContentType == "text/markdown"
}

// HasTag reports whether the message carries tag.
func (m Message) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// String returns a compact one-line description of the message.
func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] %s", m.Event, m.ID, m.Topic)
	if m.Title != "" {
		fmt.Fprintf(&b, " %q", m.Title)
	}
	if m.Message != "" {
		fmt.Fprintf(&b, ": %s", m.Message)
	}
	return b.String()
}

// ParseErrorKind classifies a record that could not be turned into a Message.
type ParseErrorKind int

// Parse error kinds.
const (
	// ParseErrorMalformedJSON means the record was not a valid JSON event.
	ParseErrorMalformedJSON ParseErrorKind = iota + 1
	// ParseErrorUnknownEvent means the record was valid but its event is not understood.
	ParseErrorUnknownEvent
)

// String returns the kind name.
func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorMalformedJSON:
		return "malformed_json"
	case ParseErrorUnknownEvent:
		return "unknown_event"
	default:
		return "unknown"
	}
}

// ParseError is returned for a single stream record that cannot be used.
// It never ends a stream: readers skip the record and continue.
type ParseError struct {
	Kind  ParseErrorKind
	Event string // Set for ParseErrorUnknownEvent
	Raw   []byte // The offending record, possibly truncated
	Err   error
}

const maxRawInError = 256

func newParseError(kind ParseErrorKind, raw []byte, err error) *ParseError {
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError]
	}
	return &ParseError{Kind: kind, Raw: append([]byte(nil), raw...), Err: err}
}

// NewMalformedError builds a ParseError of kind ParseErrorMalformedJSON.
func NewMalformedError(raw []byte, err error) *ParseError {
	return newParseError(ParseErrorMalformedJSON, raw, err)
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseErrorUnknownEvent:
		return fmt.Sprintf("unknown event %q", e.Event)
	default:
		if e.Err != nil {
			return fmt.Sprintf("malformed record: %v", e.Err)
		}
		return "malformed record"
	}
}

// Unwrap returns the underlying decoding error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

var errMissingEvent = errors.New("missing event field")

// ParseMessage decodes one JSON stream record.
//
// It returns a *ParseError of kind ParseErrorMalformedJSON when raw is not a
// JSON object with an event field, and ParseErrorUnknownEvent when the event
// is not one of the known kinds.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, NewMalformedError(raw, err)
	}
	if m.Event == "" {
		return Message{}, NewMalformedError(raw, errMissingEvent)
	}
	if !m.Event.Known() {
		perr := newParseError(ParseErrorUnknownEvent, raw, nil)
		perr.Event = string(m.Event)
		return Message{}, perr
	}
	return m, nil
}
