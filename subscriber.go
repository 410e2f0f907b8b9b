package ntfy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/coregx/ntfy/internal/stream"
	"github.com/coregx/ntfy/model"
)

// Subscribe opens a long-lived subscription to topics.
//
// The returned Subscription connects in the background and keeps
// reconnecting with backoff until ctx is cancelled or Close is called.
// Connection failures never end the message sequence; they are reported
// to the Observer only.
//
// Validation errors (empty topic set, invalid topic name, malformed filter)
// are returned immediately.
//
// Example:
//
//	sub, err := client.Subscribe(ctx, []string{"alerts"}, model.SubscribeFilter{
//	    Tags: []string{"warning"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer sub.Close()
//
//	for m := range sub.All() {
//	    log.Printf("%s: %s", m.Title, m.Message)
//	}
func (c *Client) Subscribe(ctx context.Context, topics []string, filter model.SubscribeFilter) (*Subscription, error) {
	if err := model.ValidateTopics(topics); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid topics", err)
	}
	if err := filter.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid subscribe filter", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		id:       uuid.NewString(),
		topics:   slices.Clone(topics),
		filter:   filter,
		key:      SubscriptionKey(topics, filter),
		client:   c,
		messages: make(chan model.Message),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	if c.watermarks != nil && filter.Since == "" {
		s.loadWatermark(ctx)
	}

	c.logger.Debugf("Subscription %s created: topics=%s, since=%q", s.id, model.JoinTopics(topics), s.Watermark())
	c.logger.Debugf("Subscription %s %s", s.id, strings.TrimSpace(c.strategy.GetRetrySchedule(3)))

	go s.run(ctx)

	return s, nil
}

// SubscriptionKey returns the key a subscription's watermark is stored
// under. The topic order does not matter; Since and Poll are ignored.
func SubscriptionKey(topics []string, filter model.SubscribeFilter) string {
	sorted := slices.Clone(topics)
	slices.Sort(sorted)
	key := model.JoinTopics(sorted)
	if fp := filter.Fingerprint(); fp != "" {
		key += "?" + fp
	}
	return key
}

func (s *Subscription) loadWatermark(ctx context.Context) {
	wm, err := s.client.watermarks.Load(ctx, s.key)
	if err != nil {
		if !IsNoData(err) {
			s.client.logger.Warnf("Subscription %s: failed to load watermark: %v", s.id, err)
		}
		return
	}
	s.stored = &wm
	s.watermark = wm.MessageID
	s.delivered.add(model.Message{ID: wm.MessageID, Time: wm.MessageTime})
}

// run is the subscription's only goroutine. It owns the backoff state and
// is the only sender on s.messages.
func (s *Subscription) run(ctx context.Context) {
	defer func() {
		s.setState(StateClosed)
		close(s.messages)
		close(s.done)
		s.client.logger.Debugf("Subscription %s closed", s.id)
	}()

	b := s.client.strategy.NewBackOff()
	attempt := 0

	for {
		s.setState(StateConnecting)
		err := s.stream(ctx, func() {
			b.Reset()
			attempt = 0
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Poll mode: the server sent the whole backlog.
			return
		}

		s.setState(StateDisconnected)
		attempt++
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			delay = s.client.strategy.CalculateRetryDelay(attempt - 1)
		}
		s.client.observer.OnConnectionError(s, err, attempt, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// stream runs one connection until it fails or ctx is done. It returns nil
// only when a poll-mode stream ended cleanly.
func (s *Subscription) stream(ctx context.Context, onOpen func()) error {
	connCtx, connCancel := context.WithCancel(ctx)
	defer connCancel()

	filter := s.filter
	switch wm := s.Watermark(); {
	case wm != "":
		filter = filter.WithSince(wm)
	case s.resumeAt > 0:
		// Nothing delivered yet: continue from the last record the server
		// sent so messages published while disconnected are not lost.
		filter = filter.WithSince(strconv.FormatInt(s.resumeAt, 10))
	}

	s.client.logger.Debugf("Subscription %s connecting: topics=%s, since=%q",
		s.id, model.JoinTopics(s.topics), filter.Since)

	body, err := s.client.transport.Stream(connCtx, &Request{
		Method: http.MethodGet,
		Path:   model.JoinTopics(s.topics) + "/json",
		Query:  filter.Query(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	s.setState(StateStreaming)

	// Any record, keepalives included, proves the connection is alive.
	// The watchdog is paused while a message waits for the consumer.
	grace := s.client.keepaliveTimeout
	var timedOut atomic.Bool
	watchdog := time.AfterFunc(grace, func() {
		timedOut.Store(true)
		connCancel()
	})
	defer watchdog.Stop()

	r := stream.NewReader(body)
	for {
		m, err := r.Next()
		watchdog.Stop()

		if err != nil {
			var parseErr *model.ParseError
			if errors.As(err, &parseErr) {
				s.client.observer.OnParseError(s, parseErr)
				watchdog.Reset(grace)
				continue
			}
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case timedOut.Load():
				return &ConnectionError{Message: fmt.Sprintf("no data received for %v", grace), Err: context.DeadlineExceeded}
			case filter.Poll && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)):
				return nil
			case errors.Is(err, io.EOF):
				return &ConnectionError{Message: "stream closed by server"}
			default:
				return &ConnectionError{Err: err}
			}
		}

		if m.Time > s.resumeAt {
			s.resumeAt = m.Time
		}

		switch m.Event {
		case model.EventOpen:
			onOpen()
		case model.EventKeepalive:
		case model.EventPollRequest:
			if filter.Poll {
				if err := s.deliver(ctx, m); err != nil {
					return err
				}
			}
		case model.EventMessage:
			if err := s.deliver(ctx, m); err != nil {
				return err
			}
		}

		watchdog.Reset(grace)
	}
}

// deliver hands m to the consumer if it passes the filter and has not been
// delivered before. Only message events move the watermark.
//
// A server that no longer has the watermark message cached replays its
// whole backlog, so every message up to the watermark is skipped, not only
// the watermark itself.
func (s *Subscription) deliver(ctx context.Context, m model.Message) error {
	if m.Event == model.EventMessage && s.delivered.contains(m) {
		return nil
	}
	if !s.filter.Matches(m) {
		return nil
	}

	select {
	case s.messages <- m:
	case <-ctx.Done():
		return ctx.Err()
	}

	if m.Event != model.EventMessage {
		return nil
	}
	s.delivered.add(m)
	s.setWatermark(m.ID)
	s.persist(ctx, m)
	return nil
}

// persist saves the watermark and archives m. Failures are logged and do
// not interrupt delivery.
func (s *Subscription) persist(ctx context.Context, m model.Message) {
	c := s.client

	if c.watermarks != nil {
		wm := model.NewWatermark(s.key, m)
		if s.stored != nil {
			wm = *s.stored
			wm.Advance(m)
		}
		saved, err := c.watermarks.Save(ctx, wm)
		if err != nil {
			c.logger.Warnf("Subscription %s: failed to save watermark %s: %v", s.id, m.ID, err)
		} else {
			s.stored = &saved
		}
	}

	if c.archive != nil {
		a, err := model.NewArchivedMessage(m)
		if err == nil {
			_, err = c.archive.Save(ctx, a)
		}
		if err != nil {
			c.logger.Warnf("Subscription %s: failed to archive message %s: %v", s.id, m.ID, err)
		}
	}
}
