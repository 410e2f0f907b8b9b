package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ActionType is the kind of user action attached to a notification.
type ActionType string

// Supported action types.
const (
	ActionView      ActionType = "view"
	ActionHTTP      ActionType = "http"
	ActionBroadcast ActionType = "broadcast"
)

// MaxActions is the number of actions a server accepts per message.
const MaxActions = 3

// Action is a button shown with a notification.
//
// Which fields apply depends on Action:
//   - view: URL
//   - http: URL, Method, Headers, Body
//   - broadcast: Intent, Extras
type Action struct {
	ID      string            `json:"id,omitempty"`
	Action  ActionType        `json:"action"`
	Label   string            `json:"label"`
	Clear   bool              `json:"clear,omitempty"`
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Intent  string            `json:"intent,omitempty"`
	Extras  map[string]string `json:"extras,omitempty"`
}

// NewViewAction returns an action that opens url.
func NewViewAction(label, url string, clear bool) Action {
	return Action{Action: ActionView, Label: label, URL: url, Clear: clear}
}

// NewHTTPAction returns an action that sends an HTTP request.
func NewHTTPAction(label, url, method string, headers map[string]string, body string) Action {
	return Action{Action: ActionHTTP, Label: label, URL: url, Method: method, Headers: headers, Body: body}
}

// NewBroadcastAction returns an Android broadcast action.
func NewBroadcastAction(label string, extras map[string]string) Action {
	return Action{Action: ActionBroadcast, Label: label, Extras: extras}
}

// Validate checks the action is complete for its type.
func (a Action) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Action, validation.Required, validation.In(ActionView, ActionHTTP, ActionBroadcast)),
		validation.Field(&a.Label, validation.Required),
		validation.Field(&a.URL,
			validation.When(a.Action == ActionView || a.Action == ActionHTTP, validation.Required),
			is.URL),
		validation.Field(&a.Method,
			validation.When(a.Action == ActionHTTP, validation.In("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"))),
	)
}

// String renders the action in the short comma-separated header format,
// for example "view, Open portal, https://example.com/, clear=true".
func (a Action) String() string {
	parts := []string{string(a.Action), a.Label}
	switch a.Action {
	case ActionView:
		parts = append(parts, a.URL)
	case ActionHTTP:
		parts = append(parts, a.URL)
		if a.Method != "" {
			parts = append(parts, "method="+a.Method)
		}
		parts = append(parts, prefixed("headers.", a.Headers)...)
		if a.Body != "" {
			parts = append(parts, "body="+a.Body)
		}
	case ActionBroadcast:
		if a.Intent != "" {
			parts = append(parts, "intent="+a.Intent)
		}
		parts = append(parts, prefixed("extras.", a.Extras)...)
	}
	if a.Clear {
		parts = append(parts, "clear=true")
	}
	return strings.Join(parts, ", ")
}

func prefixed(prefix string, kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, prefix+k+"="+kv[k])
	}
	return out
}

// ParseActionJSON decodes a single JSON action such as
// {"action": "view", "label": "Open", "url": "https://example.com"}.
func ParseActionJSON(raw string) (Action, error) {
	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Action{}, fmt.Errorf("invalid action JSON: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Action{}, fmt.Errorf("invalid action: %w", err)
	}
	return a, nil
}
