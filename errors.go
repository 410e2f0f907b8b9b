package ntfy

import (
	"errors"
	"fmt"
)

// Error represents a library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes.
const (
	// ErrCodeNoData indicates no data was found.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeClosed indicates the subscription was closed.
	ErrCodeClosed = "SUBSCRIPTION_CLOSED"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrSubscriptionClosed is returned by Subscription.Next once the
	// subscription has reached StateClosed.
	ErrSubscriptionClosed = &Error{
		Code:    ErrCodeClosed,
		Message: "subscription closed",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	var ntfyErr *Error
	if errors.As(err, &ntfyErr) {
		return ntfyErr.Code == ErrCodeNoData
	}
	return errors.Is(err, ErrNoData)
}

// IsValidation checks if an error was caused by invalid input.
func IsValidation(err error) bool {
	var ntfyErr *Error
	return errors.As(err, &ntfyErr) && ntfyErr.Code == ErrCodeValidation
}

// PublishErrorKind distinguishes server rejections from transport failures.
type PublishErrorKind int

// Publish error kinds.
const (
	// PublishRejected means the server answered with a non-success status.
	PublishRejected PublishErrorKind = iota + 1
	// PublishTransport means no usable answer was received.
	PublishTransport
)

// PublishError is returned when resolving a publish fails.
// Publishes are never retried automatically; the caller decides.
type PublishError struct {
	Kind PublishErrorKind

	// Code is the HTTP status for PublishRejected.
	Code int

	// ServerCode is the server's own error code (e.g. 40013), if reported.
	ServerCode int

	// ServerMessage is the server's error text, if reported.
	ServerMessage string

	// Err is the transport failure for PublishTransport.
	Err error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	if e.Kind == PublishRejected {
		if e.ServerMessage != "" {
			return fmt.Sprintf("publish rejected (%d): %s", e.Code, e.ServerMessage)
		}
		return fmt.Sprintf("publish rejected (%d)", e.Code)
	}
	return fmt.Sprintf("publish failed: %v", e.Err)
}

// Unwrap returns the transport failure, if any.
func (e *PublishError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is a server rejection of a publish.
func IsRejected(err error) bool {
	var pubErr *PublishError
	return errors.As(err, &pubErr) && pubErr.Kind == PublishRejected
}

// ConnectionError describes a failed or lost subscription connection.
// The subscription engine retries these itself; they are only visible
// through an Observer.
type ConnectionError struct {
	// StatusCode is set when the server answered with a non-success status.
	StatusCode int

	// Message is the server's error text or a description of the failure.
	Message string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("connection failed (%d): %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("connection failed (%d)", e.StatusCode)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("connection lost: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("connection lost: %v", e.Err)
	default:
		return "connection lost: " + e.Message
	}
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
