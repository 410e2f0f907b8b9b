package ntfy

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/coregx/ntfy/model"
)

// State is the connection state of a Subscription.
type State int32

// Subscription states.
//
//	Connecting -> Streaming -> Disconnected -> Connecting -> ... -> Closed
const (
	// StateConnecting means a stream request is in flight.
	StateConnecting State = iota + 1
	// StateStreaming means the server accepted the request and records are being read.
	StateStreaming
	// StateDisconnected means the last attempt failed and a reconnect is scheduled.
	StateDisconnected
	// StateClosed is terminal: the caller cancelled and the connection is released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscription is a live, self-healing stream of messages for a topic set.
//
// Messages are delivered in server order through Messages, Next or All.
// A message counts as delivered once the consumer has received it; the
// watermark only advances past delivered messages, so reconnects never
// skip or repeat one.
//
// The subscription ends when its context is cancelled, Close is called,
// or (in poll mode) the server finishes sending the backlog.
type Subscription struct {
	id     string
	topics []string
	filter model.SubscribeFilter
	key    string

	client *Client

	messages chan model.Message
	cancel   context.CancelFunc
	done     chan struct{}

	state atomic.Int32

	mu        sync.Mutex
	watermark string
	stored    *model.Watermark

	// Owned by the run goroutine.
	delivered deliveredSet
	resumeAt  int64 // Newest record time seen, used when there is no watermark
}

// ID returns the subscription's unique id, used for log correlation.
func (s *Subscription) ID() string {
	return s.id
}

// Topics returns the subscribed topic set.
func (s *Subscription) Topics() []string {
	return append([]string(nil), s.topics...)
}

// Filter returns the filter the subscription was created with.
func (s *Subscription) Filter() model.SubscribeFilter {
	return s.filter
}

// Key identifies the topic set and match filter. Watermarks are stored
// under this key.
func (s *Subscription) Key() string {
	return s.key
}

// State returns the current connection state.
func (s *Subscription) State() State {
	return State(s.state.Load())
}

// Watermark returns the id of the last delivered message, or the resume
// point loaded from the watermark store. Empty if neither exists.
func (s *Subscription) Watermark() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// Messages returns the delivery channel. It is closed when the
// subscription reaches StateClosed.
func (s *Subscription) Messages() <-chan model.Message {
	return s.messages
}

// Next blocks until the next message arrives, ctx is done, or the
// subscription closes (ErrSubscriptionClosed).
func (s *Subscription) Next(ctx context.Context) (model.Message, error) {
	select {
	case m, ok := <-s.messages:
		if !ok {
			return model.Message{}, ErrSubscriptionClosed
		}
		return m, nil
	case <-ctx.Done():
		return model.Message{}, ctx.Err()
	}
}

// All returns an iterator over delivered messages. Breaking out of the loop
// does not close the subscription.
//
//	for m := range sub.All() {
//	    fmt.Println(m.Message)
//	}
func (s *Subscription) All() iter.Seq[model.Message] {
	return func(yield func(model.Message) bool) {
		for m := range s.messages {
			if !yield(m) {
				return
			}
		}
	}
}

// Close cancels the subscription and waits until the connection is
// released. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Done is closed once the subscription has reached StateClosed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) setState(to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		s.client.observer.OnStateChange(s, from, to)
	}
}

func (s *Subscription) setWatermark(id string) {
	s.mu.Lock()
	s.watermark = id
	s.mu.Unlock()
}

// deliveredSet remembers the newest delivered message time and the ids
// delivered at that second. The server sends messages in time order, so
// anything older, or equally old and already listed, was delivered before.
type deliveredSet struct {
	time int64
	ids  map[string]struct{}
}

func (d *deliveredSet) contains(m model.Message) bool {
	if d.ids == nil {
		return false
	}
	if m.Time != d.time {
		return m.Time < d.time
	}
	_, ok := d.ids[m.ID]
	return ok
}

func (d *deliveredSet) add(m model.Message) {
	if d.ids == nil || m.Time > d.time {
		d.time = m.Time
		d.ids = make(map[string]struct{})
	}
	d.ids[m.ID] = struct{}{}
}
