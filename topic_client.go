package ntfy

import (
	"context"

	"github.com/coregx/ntfy/model"
)

// TopicClient binds one topic of a server. It holds no state besides the
// binding; all work is done by the underlying Client.
type TopicClient struct {
	topic  string
	client *Client
}

// NewTopicClient binds topic on client.
func NewTopicClient(topic string, client *Client) (*TopicClient, error) {
	if client == nil {
		return nil, NewError(ErrCodeConfiguration, "client is required")
	}
	if err := model.ValidateTopic(topic); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid topic", err)
	}
	return &TopicClient{topic: topic, client: client}, nil
}

// Topic returns the bound topic.
func (t *TopicClient) Topic() string {
	return t.topic
}

// Client returns the underlying client.
func (t *TopicClient) Client() *Client {
	return t.client
}

// Subscribe subscribes to the bound topic. See Client.Subscribe.
func (t *TopicClient) Subscribe(ctx context.Context, filter model.SubscribeFilter) (*Subscription, error) {
	return t.client.Subscribe(ctx, []string{t.topic}, filter)
}

// Publish publishes to the bound topic. A non-nil body becomes the raw
// payload; req may then be nil. The caller's request is not modified.
// See Client.Publish.
func (t *TopicClient) Publish(ctx context.Context, req *model.PublishRequest, body []byte) (*PublishResponse, error) {
	var r model.PublishRequest
	if req != nil {
		r = *req
	}
	if body != nil {
		r.Body = body
	}
	return t.client.Publish(ctx, t.topic, &r)
}
