package ntfy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coregx/ntfy/model"
)

// PublishResponse is the pending result of a publish. The request is sent
// in the background as soon as Publish returns.
type PublishResponse struct {
	topic string
	done  chan struct{}
	ack   *model.PublishAck
	err   error
}

// Topic returns the topic the message was published to.
func (r *PublishResponse) Topic() string {
	return r.topic
}

// Done is closed once the server has answered or the send failed.
func (r *PublishResponse) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the publish resolves.
//
// Errors are *PublishError: PublishRejected when the server answered with a
// non-success status, PublishTransport when no answer was received.
func (r *PublishResponse) Wait() (*model.PublishAck, error) {
	<-r.done
	return r.ack, r.err
}

// Publish sends one message to topic.
//
// The request is validated synchronously; validation errors are returned
// directly and nothing is sent. Otherwise the send runs in the background
// and its outcome is read from the returned PublishResponse.
//
// Publishes are sent exactly once. A failed publish may or may not have
// reached the server, so retrying is left to the caller.
//
// Example:
//
//	resp, err := client.Publish(ctx, "alerts", &model.PublishRequest{
//	    Message:  "disk full",
//	    Priority: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	ack, err := resp.Wait()
func (c *Client) Publish(ctx context.Context, topic string, req *model.PublishRequest) (*PublishResponse, error) {
	if err := model.ValidateTopic(topic); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid topic", err)
	}
	if req == nil {
		return nil, NewError(ErrCodeValidation, "publish request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid publish request", err)
	}

	httpReq, err := buildPublishRequest(topic, req)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "failed to encode publish request", err)
	}

	resp := &PublishResponse{topic: topic, done: make(chan struct{})}

	go func() {
		defer close(resp.done)
		resp.ack, resp.err = c.send(ctx, topic, httpReq)
	}()

	return resp, nil
}

// PublishBatch publishes several requests to topic concurrently and waits
// for all of them. Results are in request order; a request that failed
// validation gets a nil ack and its error, the rest are unaffected.
func (c *Client) PublishBatch(ctx context.Context, topic string, reqs []*model.PublishRequest) ([]*model.PublishAck, []error) {
	responses := make([]*PublishResponse, len(reqs))
	acks := make([]*model.PublishAck, len(reqs))
	errs := make([]error, len(reqs))

	for i, req := range reqs {
		responses[i], errs[i] = c.Publish(ctx, topic, req)
	}
	for i, resp := range responses {
		if resp == nil {
			continue
		}
		acks[i], errs[i] = resp.Wait()
		if errs[i] != nil {
			c.logger.Errorf("Failed to publish message %d of %d to %s: %v", i+1, len(reqs), topic, errs[i])
		}
	}

	return acks, errs
}

func (c *Client) send(ctx context.Context, topic string, req *Request) (*model.PublishAck, error) {
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, &PublishError{Kind: PublishTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, message := decodeServerError(resp.Body)
		c.logger.Warnf("Publish to %s rejected: status=%d, code=%d, error=%s", topic, resp.StatusCode, code, message)
		return nil, &PublishError{
			Kind:          PublishRejected,
			Code:          resp.StatusCode,
			ServerCode:    code,
			ServerMessage: message,
		}
	}

	ack, err := model.ParsePublishAck(resp.Body)
	if err != nil {
		return nil, &PublishError{Kind: PublishTransport, Err: fmt.Errorf("invalid publish response: %w", err)}
	}

	c.logger.Debugf("Published message %s to %s", ack.ID, topic)

	return &ack, nil
}

// buildPublishRequest encodes req. The caller's request is not modified.
func buildPublishRequest(topic string, req *model.PublishRequest) (*Request, error) {
	if req.EffectiveEncoding() == model.EncodingJSON {
		body, err := req.MarshalDocument(topic)
		if err != nil {
			return nil, err
		}
		h := req.ControlHeaders()
		h.Set("Content-Type", "application/json")
		return &Request{Method: http.MethodPost, Path: "/", Header: h, Body: body}, nil
	}

	h, err := req.Headers()
	if err != nil {
		return nil, err
	}

	body := []byte(req.Message)
	if req.HasBody() {
		body = req.Body
	}
	return &Request{Method: http.MethodPut, Path: topic, Header: h, Body: body}, nil
}
