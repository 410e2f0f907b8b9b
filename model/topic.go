package model

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Topic names are 1-64 characters of letters, digits, '-' and '_'.
// The server routes on the name only; there is no topic hierarchy.
var topicPattern = regexp.MustCompile(`^[-_A-Za-z0-9]{1,64}$`)

// ValidateTopic checks that topic is a usable topic name.
func ValidateTopic(topic string) error {
	return validation.Validate(topic,
		validation.Required.Error("topic is required"),
		validation.Match(topicPattern).Error("topic must be 1-64 characters of [-_A-Za-z0-9]"),
	)
}

// ValidateTopics checks a non-empty topic set.
func ValidateTopics(topics []string) error {
	return validation.Validate(topics,
		validation.Required.Error("at least one topic is required"),
		validation.Each(validation.By(func(v interface{}) error {
			s, _ := v.(string)
			return ValidateTopic(s)
		})),
	)
}

// JoinTopics returns the comma-separated path segment for a topic set.
func JoinTopics(topics []string) string {
	return strings.Join(topics, ",")
}
