package ntfy

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coregx/ntfy/model"
)

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	obs := NewLoggingObserver(logger)
	sub := &Subscription{id: "sub-1", topics: []string{"alerts", "backups"}}

	obs.OnStateChange(sub, StateConnecting, StateStreaming)
	obs.OnConnectionError(sub, errors.New("connection refused"), 3, 4*time.Second)
	obs.OnParseError(sub, model.NewMalformedError([]byte("{"), nil))

	out := buf.String()
	assert.Contains(t, out, "Subscription sub-1 (alerts,backups): connecting -> streaming")
	assert.Contains(t, out, "connection refused, reconnecting in 4s (attempt 3)")
	assert.Contains(t, out, "skipped record: malformed record")
	assert.Contains(t, out, "level=WARN")
}

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)
	logger.Errorf("failed %s", "hard")
	logger.Info("plain")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "plain")
}
