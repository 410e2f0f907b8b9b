package ntfy

import (
	"time"

	"github.com/coregx/ntfy/model"
)

// Observer receives subscription lifecycle events that the engine otherwise
// handles on its own (reconnects, skipped records).
//
// Callbacks run on the subscription's goroutine and must not block.
// Implementations might export metrics, update a status line, or log.
type Observer interface {
	// OnStateChange is called on every state transition.
	OnStateChange(sub *Subscription, from, to State)

	// OnConnectionError is called when connecting fails or an open stream is
	// lost. The engine retries after delay.
	OnConnectionError(sub *Subscription, err error, attempt int, delay time.Duration)

	// OnParseError is called for every stream record that was skipped.
	OnParseError(sub *Subscription, err *model.ParseError)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

// OnStateChange does nothing.
func (o *NoOpObserver) OnStateChange(_ *Subscription, _, _ State) {}

// OnConnectionError does nothing.
func (o *NoOpObserver) OnConnectionError(_ *Subscription, _ error, _ int, _ time.Duration) {}

// OnParseError does nothing.
func (o *NoOpObserver) OnParseError(_ *Subscription, _ *model.ParseError) {}

// LoggingObserver is a simple implementation that logs every event.
type LoggingObserver struct {
	logger Logger
}

// NewLoggingObserver creates a new LoggingObserver.
func NewLoggingObserver(logger Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// OnStateChange logs the transition.
func (o *LoggingObserver) OnStateChange(sub *Subscription, from, to State) {
	o.logger.Debugf("Subscription %s (%s): %s -> %s", sub.ID(), model.JoinTopics(sub.Topics()), from, to)
}

// OnConnectionError logs the failure and the scheduled retry.
func (o *LoggingObserver) OnConnectionError(sub *Subscription, err error, attempt int, delay time.Duration) {
	o.logger.Warnf("Subscription %s (%s): %v, reconnecting in %v (attempt %d)",
		sub.ID(), model.JoinTopics(sub.Topics()), err, delay.Round(time.Millisecond), attempt)
}

// OnParseError logs the skipped record.
func (o *LoggingObserver) OnParseError(sub *Subscription, err *model.ParseError) {
	o.logger.Warnf("Subscription %s: skipped record: %v", sub.ID(), err)
}
