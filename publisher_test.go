package ntfy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/ntfy/model"
)

type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func capture(r *http.Request) capturedRequest {
	body, _ := io.ReadAll(r.Body)
	return capturedRequest{method: r.Method, path: r.URL.Path, header: r.Header.Clone(), body: body}
}

func TestPublish_JSON(t *testing.T) {
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- capture(r)
		_, _ = w.Write([]byte(`{"id":"abc123","time":1700000000,"expires":1700043200,"event":"message","topic":"alerts","message":"disk full"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	resp, err := client.Publish(context.Background(), "alerts", &model.PublishRequest{
		Message:      "disk full",
		Priority:     5,
		DisableCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "alerts", resp.Topic())

	ack, err := resp.Wait()
	require.NoError(t, err)

	assert.Equal(t, "abc123", ack.ID)
	assert.Equal(t, "alerts", ack.Topic)
	assert.Equal(t, int64(1700043200), ack.Expires)

	got := <-reqs
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/", got.path)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "no", got.header.Get("X-Cache"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(got.body, &doc))
	assert.Equal(t, "alerts", doc["topic"])
	assert.Equal(t, "disk full", doc["message"])
	assert.Equal(t, float64(5), doc["priority"])
}

func TestPublish_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":40013,"http":400,"error":"invalid request: actions invalid","link":"https://ntfy.sh/docs/publish/#action-buttons"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	resp, err := client.Publish(context.Background(), "alerts", &model.PublishRequest{Message: "hi"})
	require.NoError(t, err)

	ack, err := resp.Wait()

	assert.Nil(t, ack)
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, PublishRejected, pubErr.Kind)
	assert.Equal(t, http.StatusBadRequest, pubErr.Code)
	assert.Equal(t, 40013, pubErr.ServerCode)
	assert.Equal(t, "invalid request: actions invalid", pubErr.ServerMessage)
	assert.True(t, IsRejected(err))
	assert.Equal(t, "publish rejected (400): invalid request: actions invalid", err.Error())
}

func TestPublish_RejectedPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	resp, err := client.Publish(context.Background(), "alerts", &model.PublishRequest{Message: "hi"})
	require.NoError(t, err)

	_, err = resp.Wait()

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, http.StatusForbidden, pubErr.Code)
	assert.Zero(t, pubErr.ServerCode)
	assert.Equal(t, "forbidden", pubErr.ServerMessage)
}

func TestPublish_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url)
	resp, err := client.Publish(context.Background(), "alerts", &model.PublishRequest{Message: "hi"})
	require.NoError(t, err)

	_, err = resp.Wait()

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, PublishTransport, pubErr.Kind)
	assert.Error(t, pubErr.Err)
	assert.False(t, IsRejected(err))
}

func TestPublish_HeaderEncoding(t *testing.T) {
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- capture(r)
		_, _ = w.Write([]byte(`{"id":"h1","time":1,"event":"message","topic":"alerts"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	resp, err := client.Publish(context.Background(), "alerts", &model.PublishRequest{
		Message:  "backup done",
		Title:    "Backup",
		Tags:     []string{"floppy_disk", "ok"},
		Encoding: model.EncodingHeaders,
	})
	require.NoError(t, err)
	<-resp.Done()
	ack, err := resp.Wait()
	require.NoError(t, err)

	assert.Equal(t, "h1", ack.ID)

	got := <-reqs
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/alerts", got.path)
	assert.Equal(t, "Backup", got.header.Get("X-Title"))
	assert.Equal(t, "floppy_disk,ok", got.header.Get("X-Tags"))
	assert.Empty(t, got.header.Get("X-Message"))
	assert.Equal(t, "backup done", string(got.body))
}

func TestPublish_BodyTakesPrecedence(t *testing.T) {
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- capture(r)
		_, _ = w.Write([]byte(`{"id":"b1","time":1,"event":"message","topic":"files"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	resp, err := client.Publish(context.Background(), "files", &model.PublishRequest{
		Message:  "see attached",
		Filename: "report.txt",
		Body:     []byte("raw report"),
	})
	require.NoError(t, err)
	_, err = resp.Wait()
	require.NoError(t, err)

	got := <-reqs
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/files", got.path)
	assert.Equal(t, "see attached", got.header.Get("X-Message"))
	assert.Equal(t, "report.txt", got.header.Get("X-Filename"))
	assert.NotEqual(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "raw report", string(got.body))
}

func TestPublish_ValidationSendsNothing(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)

	tests := []struct {
		name  string
		topic string
		req   *model.PublishRequest
	}{
		{"Invalid topic", "a/b", &model.PublishRequest{Message: "hi"}},
		{"Nil request", "alerts", nil},
		{"Priority out of range", "alerts", &model.PublishRequest{Priority: 9}},
		{"Invalid click URL", "alerts", &model.PublishRequest{Click: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Publish(context.Background(), tt.topic, tt.req)
			assert.Nil(t, resp)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Zero(t, requests.Load())
}

func TestPublishBatch(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		_, _ = fmt.Fprintf(w, `{"id":"id%d","time":1,"event":"message","topic":"alerts"}`, n)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL)
	acks, errs := client.PublishBatch(context.Background(), "alerts", []*model.PublishRequest{
		{Message: "one"},
		{Priority: 42},
		{Message: "three"},
	})

	require.Len(t, acks, 3)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.NotNil(t, acks[0])
	assert.True(t, IsValidation(errs[1]))
	assert.Nil(t, acks[1])
	assert.NoError(t, errs[2])
	assert.NotNil(t, acks[2])
	assert.Equal(t, int32(2), requests.Load())
}
