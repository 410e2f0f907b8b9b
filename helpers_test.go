package ntfy

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coregx/ntfy/model"
	"github.com/coregx/ntfy/retry"
)

// fastStrategy keeps reconnect delays short enough for tests.
var fastStrategy = retry.Strategy{
	InitialDelay: 10 * time.Millisecond,
	MaxDelay:     50 * time.Millisecond,
	Multiplier:   2,
	Jitter:       0,
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(append([]Option{
		WithBaseURL(baseURL),
		WithReconnectStrategy(fastStrategy),
	}, opts...)...)
	require.NoError(t, err)
	return client
}

// writeLines writes each record on its own line and flushes.
func writeLines(w http.ResponseWriter, lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func openEvent(topic string) string {
	return fmt.Sprintf(`{"id":"open1","time":1700000000,"event":"open","topic":%q}`, topic)
}

func messageEvent(id, topic, text string) string {
	return messageEventAt(id, topic, text, 1700000001)
}

func messageEventAt(id, topic, text string, unix int64) string {
	return fmt.Sprintf(`{"id":%q,"time":%d,"event":"message","topic":%q,"message":%q}`, id, unix, topic, text)
}

// recordingObserver keeps every callback for later assertions.
type recordingObserver struct {
	mu          sync.Mutex
	transitions []State
	connErrs    []error
	parseErrs   []*model.ParseError
}

func (o *recordingObserver) OnStateChange(_ *Subscription, _, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, to)
}

func (o *recordingObserver) OnConnectionError(_ *Subscription, err error, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connErrs = append(o.connErrs, err)
}

func (o *recordingObserver) OnParseError(_ *Subscription, err *model.ParseError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parseErrs = append(o.parseErrs, err)
}

func (o *recordingObserver) connectionErrors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.connErrs...)
}

func (o *recordingObserver) parseErrors() []*model.ParseError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*model.ParseError(nil), o.parseErrs...)
}

func (o *recordingObserver) states() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]State(nil), o.transitions...)
}

// syncBuffer is a bytes.Buffer safe for the subscription goroutine to log into.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
