package ntfy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/ntfy/model"
)

func TestNewTopicClient(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	tc, err := NewTopicClient("alerts", client)
	require.NoError(t, err)
	assert.Equal(t, "alerts", tc.Topic())
	assert.Same(t, client, tc.Client())

	_, err = NewTopicClient("bad topic", client)
	assert.True(t, IsValidation(err))

	_, err = NewTopicClient("alerts", nil)
	assert.Error(t, err)
}

func TestTopicClient_PublishAndSubscribe(t *testing.T) {
	reqs := make(chan capturedRequest, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- capture(r)
		if r.Method == http.MethodGet {
			writeLines(w, openEvent("alerts"), messageEvent("m1", "alerts", "hello"))
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"id":"p1","time":1,"event":"message","topic":"alerts"}`))
	}))
	t.Cleanup(srv.Close)

	tc, err := NewTopicClient("alerts", newTestClient(t, srv.URL))
	require.NoError(t, err)

	req := &model.PublishRequest{Message: "caption"}
	resp, err := tc.Publish(context.Background(), req, []byte("payload"))
	require.NoError(t, err)
	ack, err := resp.Wait()
	require.NoError(t, err)
	assert.Equal(t, "p1", ack.ID)
	assert.Nil(t, req.Body)

	put := <-reqs
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/alerts", put.path)
	assert.Equal(t, "payload", string(put.body))

	sub, err := tc.Subscribe(context.Background(), model.SubscribeFilter{})
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, "hello", nextMessage(t, sub).Message)
	assert.Equal(t, []string{"alerts"}, sub.Topics())
}

func TestTopicClient_PublishBodyOnly(t *testing.T) {
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- capture(r)
		_, _ = w.Write([]byte(`{"id":"p2","time":1,"event":"message","topic":"alerts"}`))
	}))
	t.Cleanup(srv.Close)

	tc, err := NewTopicClient("alerts", newTestClient(t, srv.URL))
	require.NoError(t, err)

	resp, err := tc.Publish(context.Background(), nil, []byte("just bytes"))
	require.NoError(t, err)
	_, err = resp.Wait()
	require.NoError(t, err)

	got := <-reqs
	assert.Equal(t, "just bytes", string(got.body))
	assert.Empty(t, got.header.Get("X-Message"))
}
