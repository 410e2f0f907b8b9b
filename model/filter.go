package model

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SubscribeFilter narrows what a subscription receives.
//
// Since selects where the stream starts: a Unix timestamp, a duration such
// as "10m" or "2h", a message ID, or "all". Empty means "new messages only".
// The match fields (ID, Message, Title, Priorities, Tags) must all match
// for a message to be delivered.
type SubscribeFilter struct {
	Since      string
	ID         string
	Message    string
	Title      string
	Priorities []int
	Tags       []string
	Poll       bool // Return the cached backlog and end the stream
	Scheduled  bool // Include scheduled (delayed) messages
}

var sinceFormat = regexp.MustCompile(`^(all|none|latest|[0-9]+|[0-9]+[smhd]|[A-Za-z0-9]{1,64})$`)

// Validate checks field formats.
func (f SubscribeFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Since, validation.Match(sinceFormat).Error("must be a timestamp, duration, message ID or \"all\"")),
		validation.Field(&f.Priorities, validation.Each(validation.Min(1), validation.Max(5))),
		validation.Field(&f.Tags, validation.Each(validation.Required)),
	)
}

// WithSince returns a copy of f starting at since.
func (f SubscribeFilter) WithSince(since string) SubscribeFilter {
	f.Since = since
	return f
}

// HasMatchers reports whether any match field is set.
func (f SubscribeFilter) HasMatchers() bool {
	return f.ID != "" || f.Message != "" || f.Title != "" || len(f.Priorities) > 0 || len(f.Tags) > 0
}

// Query encodes the filter as stream query parameters.
func (f SubscribeFilter) Query() url.Values {
	q := url.Values{}
	if f.Since != "" {
		q.Set("since", f.Since)
	}
	if f.ID != "" {
		q.Set("id", f.ID)
	}
	if f.Message != "" {
		q.Set("message", f.Message)
	}
	if f.Title != "" {
		q.Set("title", f.Title)
	}
	if len(f.Priorities) > 0 {
		q.Set("priority", joinInts(f.Priorities))
	}
	if len(f.Tags) > 0 {
		q.Set("tags", strings.Join(f.Tags, ","))
	}
	if f.Poll {
		q.Set("poll", "1")
	}
	if f.Scheduled {
		q.Set("scheduled", "1")
	}
	return q
}

// Matches reports whether m passes every match field.
// Messages without a priority are treated as DefaultPriority.
func (f SubscribeFilter) Matches(m Message) bool {
	if f.ID != "" && m.ID != f.ID {
		return false
	}
	if f.Message != "" && m.Message != f.Message {
		return false
	}
	if f.Title != "" && m.Title != f.Title {
		return false
	}
	if len(f.Priorities) > 0 {
		p := m.EffectivePriority()
		found := false
		for _, want := range f.Priorities {
			if want == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tag := range f.Tags {
		if !m.HasTag(tag) {
			return false
		}
	}
	return true
}

// Fingerprint identifies the match fields of f, ignoring Since.
// Two filters with equal fingerprints select the same messages.
func (f SubscribeFilter) Fingerprint() string {
	q := f.WithSince("").Query()
	q.Del("poll")
	return q.Encode()
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}
