package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeFilter_Query(t *testing.T) {
	tests := []struct {
		name   string
		filter SubscribeFilter
		want   string
	}{
		{"Empty", SubscribeFilter{}, ""},
		{"Since", SubscribeFilter{Since: "10m"}, "since=10m"},
		{"Poll and scheduled", SubscribeFilter{Poll: true, Scheduled: true}, "poll=1&scheduled=1"},
		{
			name:   "Match fields",
			filter: SubscribeFilter{ID: "abc", Message: "hi", Title: "T", Priorities: []int{4, 5}, Tags: []string{"warning", "db"}},
			want:   "id=abc&message=hi&priority=4%2C5&tags=warning%2Cdb&title=T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Query().Encode())
		})
	}
}

func TestSubscribeFilter_Matches(t *testing.T) {
	msg := Message{ID: "m1", Event: EventMessage, Title: "Disk", Message: "full", Tags: []string{"warning", "db"}}

	tests := []struct {
		name   string
		filter SubscribeFilter
		msg    Message
		want   bool
	}{
		{"No matchers", SubscribeFilter{}, msg, true},
		{"All tags present", SubscribeFilter{Tags: []string{"warning", "db"}}, msg, true},
		{"Missing tag", SubscribeFilter{Tags: []string{"info"}}, msg, false},
		{"Tag subset missing", SubscribeFilter{Tags: []string{"warning"}}, Message{Tags: []string{"info"}}, false},
		{"ID match", SubscribeFilter{ID: "m1"}, msg, true},
		{"ID mismatch", SubscribeFilter{ID: "m2"}, msg, false},
		{"Title mismatch", SubscribeFilter{Title: "CPU"}, msg, false},
		{"Message match", SubscribeFilter{Message: "full"}, msg, true},
		{"Default priority matches 3", SubscribeFilter{Priorities: []int{3}}, msg, true},
		{"Priority mismatch", SubscribeFilter{Priorities: []int{4, 5}}, msg, false},
		{"Explicit priority", SubscribeFilter{Priorities: []int{4, 5}}, Message{Priority: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.msg))
		})
	}
}

func TestSubscribeFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  SubscribeFilter
		wantErr bool
	}{
		{"Empty", SubscribeFilter{}, false},
		{"Duration", SubscribeFilter{Since: "2h"}, false},
		{"Timestamp", SubscribeFilter{Since: "1643138845"}, false},
		{"All", SubscribeFilter{Since: "all"}, false},
		{"Message ID", SubscribeFilter{Since: "sPs71M8A2T"}, false},
		{"Bad since", SubscribeFilter{Since: "10 minutes"}, true},
		{"Priority out of range", SubscribeFilter{Priorities: []int{0, 6}}, true},
		{"Empty tag", SubscribeFilter{Tags: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubscribeFilter_Fingerprint(t *testing.T) {
	a := SubscribeFilter{Tags: []string{"db"}, Since: "all", Poll: true}
	b := SubscribeFilter{Tags: []string{"db"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, "tags=db", b.Fingerprint())
	assert.NotEqual(t, b.Fingerprint(), SubscribeFilter{Tags: []string{"info"}}.Fingerprint())
	assert.Empty(t, SubscribeFilter{Since: "10m"}.Fingerprint())
}

func TestSubscribeFilter_WithSince(t *testing.T) {
	f := SubscribeFilter{Since: "all", Tags: []string{"db"}}

	g := f.WithSince("abc")

	assert.Equal(t, "abc", g.Since)
	assert.Equal(t, "all", f.Since)
	assert.True(t, g.HasMatchers())
	assert.False(t, SubscribeFilter{Poll: true}.HasMatchers())
}
