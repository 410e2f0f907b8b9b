package ntfy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coregx/ntfy/model"
)

// Handler processes messages delivered to a Dispatcher.
//
// A returned error is logged; the subscription keeps running.
type Handler interface {
	HandleMessage(ctx context.Context, topic string, m model.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, topic string, m model.Message) error

// HandleMessage calls f.
func (f HandlerFunc) HandleMessage(ctx context.Context, topic string, m model.Message) error {
	return f(ctx, topic, m)
}

// Dispatcher runs handlers for a set of topic bindings, one subscription
// per binding, all concurrently.
//
// Each binding is independent: a slow handler or a reconnecting
// subscription on one binding never delays another. Within a binding,
// messages are handled one at a time in server order.
//
// Thread safety: Handle must not be called after Run has started.
type Dispatcher struct {
	bindings []*binding
	logger   Logger
}

type binding struct {
	topic   *TopicClient
	filter  model.SubscribeFilter
	handler Handler

	handled atomic.Int64
	failed  atomic.Int64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher) error

// WithDispatcherLogger sets the logger instance. Defaults to NoopLogger.
func WithDispatcherLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a new Dispatcher with the provided options.
//
// Example:
//
//	d, err := ntfy.NewDispatcher(ntfy.WithDispatcherLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.Handle(alerts, model.SubscribeFilter{Priorities: []int{4, 5}}, ntfy.HandlerFunc(page))
//	d.Handle(builds, model.SubscribeFilter{}, ntfy.HandlerFunc(record))
//	err = d.Run(ctx) // Blocks until ctx is cancelled
func NewDispatcher(opts ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{logger: &NoopLogger{}}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply dispatcher option", err)
		}
	}

	return d, nil
}

// Handle registers handler for messages on topic that pass filter.
func (d *Dispatcher) Handle(topic *TopicClient, filter model.SubscribeFilter, handler Handler) {
	d.bindings = append(d.bindings, &binding{topic: topic, filter: filter, handler: handler})
}

// Run subscribes every binding and handles messages until ctx is cancelled
// or all subscriptions have ended (poll mode). If any subscription cannot
// be created, the ones already started are closed and the error returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	if len(d.bindings) == 0 {
		return NewError(ErrCodeConfiguration, "no handlers registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subs := make([]*Subscription, 0, len(d.bindings))
	for _, b := range d.bindings {
		sub, err := b.topic.Subscribe(ctx, b.filter)
		if err != nil {
			cancel()
			for _, s := range subs {
				_ = s.Close()
			}
			return fmt.Errorf("failed to subscribe to %s: %w", b.topic.Topic(), err)
		}
		subs = append(subs, sub)
	}

	d.logger.Infof("Dispatcher started: %d subscriptions", len(subs))

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(b *binding, sub *Subscription) {
			defer wg.Done()
			d.consume(ctx, b, sub)
		}(d.bindings[i], sub)
	}
	wg.Wait()

	d.logger.Info("Dispatcher stopped")

	return nil
}

// consume handles one binding's messages until its subscription closes.
func (d *Dispatcher) consume(ctx context.Context, b *binding, sub *Subscription) {
	defer func() { _ = sub.Close() }()

	for m := range sub.All() {
		if err := b.handler.HandleMessage(ctx, b.topic.Topic(), m); err != nil {
			b.failed.Add(1)
			d.logger.Errorf("Handler failed for message %s on %s: %v", m.ID, b.topic.Topic(), err)
			continue
		}
		b.handled.Add(1)
	}
}

// DispatchStats reports per-topic handler outcomes.
type DispatchStats struct {
	Topic   string
	Handled int64
	Failed  int64
}

// Stats returns handler outcomes for every binding, in registration order.
func (d *Dispatcher) Stats() []DispatchStats {
	stats := make([]DispatchStats, len(d.bindings))
	for i, b := range d.bindings {
		stats[i] = DispatchStats{Topic: b.topic.Topic(), Handled: b.handled.Load(), Failed: b.failed.Load()}
	}
	return stats
}
