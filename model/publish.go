package model

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Encoding selects how a publish request is put on the wire.
type Encoding int

// Publish encodings.
const (
	// EncodingJSON posts a JSON document (including the topic) to the server root.
	EncodingJSON Encoding = iota
	// EncodingHeaders PUTs the payload to the topic URL with metadata in X-* headers.
	EncodingHeaders
)

// String returns the encoding name.
func (e Encoding) String() string {
	if e == EncodingHeaders {
		return "headers"
	}
	return "json"
}

// PublishRequest holds everything that can be sent with a single publish.
//
// A request describes exactly one send; build a new one for every publish.
//
// Payload precedence: when Body is non-empty it is the payload and header
// encoding is used regardless of Encoding, because JSON cannot carry raw
// bytes. Message is then sent as the X-Message header and the server treats
// Body as an attachment. Without a Body, Message is the payload.
type PublishRequest struct {
	Message  string
	Body     []byte
	Title    string
	Tags     []string
	Priority int // 1..5, 0 = server default
	Click    string
	Icon     string
	Attach   string // URL of an externally hosted attachment
	Filename string
	Actions  []Action
	Delay    string // Unix timestamp, duration ("30m") or natural language ("tomorrow, 10am")
	Email    string
	Call     string // Phone number or "yes"
	Markdown bool

	DisableCache    bool
	DisableFirebase bool
	UnifiedPush     bool

	Encoding Encoding
}

// HasBody reports whether a raw payload is set.
func (r *PublishRequest) HasBody() bool {
	return len(r.Body) > 0
}

// EffectiveEncoding returns the encoding that will actually be used.
func (r *PublishRequest) EffectiveEncoding() Encoding {
	if r.HasBody() {
		return EncodingHeaders
	}
	return r.Encoding
}

// Validate checks field formats before anything is sent.
func (r PublishRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Priority, validation.When(r.Priority != 0, validation.Min(1), validation.Max(5))),
		validation.Field(&r.Click, is.URL),
		validation.Field(&r.Icon, is.URL),
		validation.Field(&r.Attach, is.URL),
		validation.Field(&r.Email, is.EmailFormat),
		validation.Field(&r.Actions, validation.Length(0, MaxActions)),
		validation.Field(&r.Tags, validation.Each(validation.Required)),
		validation.Field(&r.Encoding, validation.In(EncodingJSON, EncodingHeaders)),
	)
}

type publishDocument struct {
	Topic    string   `json:"topic"`
	Message  string   `json:"message,omitempty"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
	Click    string   `json:"click,omitempty"`
	Attach   string   `json:"attach,omitempty"`
	Markdown bool     `json:"markdown,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Delay    string   `json:"delay,omitempty"`
	Email    string   `json:"email,omitempty"`
	Call     string   `json:"call,omitempty"`
}

// MarshalDocument returns the JSON publish document for topic.
func (r *PublishRequest) MarshalDocument(topic string) ([]byte, error) {
	return json.Marshal(publishDocument{
		Topic:    topic,
		Message:  r.Message,
		Title:    r.Title,
		Tags:     r.Tags,
		Priority: r.Priority,
		Actions:  r.Actions,
		Click:    r.Click,
		Attach:   r.Attach,
		Markdown: r.Markdown,
		Icon:     r.Icon,
		Filename: r.Filename,
		Delay:    r.Delay,
		Email:    r.Email,
		Call:     r.Call,
	})
}

// ControlHeaders returns the delivery toggles, which are header-only in
// both encodings.
func (r *PublishRequest) ControlHeaders() http.Header {
	h := http.Header{}
	if r.DisableCache {
		h.Set("X-Cache", "no")
	}
	if r.DisableFirebase {
		h.Set("X-Firebase", "no")
	}
	if r.UnifiedPush {
		h.Set("X-UnifiedPush", "1")
	}
	return h
}

// Headers returns the full X-* header set used by EncodingHeaders.
// X-Message is only included when a Body carries the payload.
func (r *PublishRequest) Headers() (http.Header, error) {
	h := r.ControlHeaders()
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	if r.HasBody() {
		set("X-Message", escapeHeader(r.Message))
	}
	set("X-Title", escapeHeader(r.Title))
	set("X-Tags", strings.Join(r.Tags, ","))
	if r.Priority != 0 {
		h.Set("X-Priority", strconv.Itoa(r.Priority))
	}
	set("X-Click", r.Click)
	set("X-Icon", r.Icon)
	set("X-Attach", r.Attach)
	set("X-Filename", r.Filename)
	set("X-Delay", r.Delay)
	set("X-Email", r.Email)
	set("X-Call", r.Call)
	if r.Markdown {
		h.Set("X-Markdown", "yes")
	}
	if len(r.Actions) > 0 {
		b, err := json.Marshal(r.Actions)
		if err != nil {
			return nil, err
		}
		h.Set("X-Actions", string(b))
	}
	return h, nil
}

// Header values cannot carry line breaks; the server accepts the literal
// two-character sequence \n instead.
func escapeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r\n", `\n`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

// PublishAck is the server's acknowledgement of a publish.
type PublishAck struct {
	ID      string
	Topic   string
	Time    int64
	Expires int64
	Message Message // Full echo of the stored message
}

// ParsePublishAck decodes the server's publish response body.
// Unlike ParseMessage it does not require an event field.
func ParsePublishAck(raw []byte) (PublishAck, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return PublishAck{}, NewMalformedError(raw, err)
	}
	return PublishAck{ID: m.ID, Topic: m.Topic, Time: m.Time, Expires: m.Expires, Message: m}, nil
}
