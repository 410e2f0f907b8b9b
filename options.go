package ntfy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/coregx/ntfy/retry"
)

// Option is a function that configures a Client.
//
// Example:
//
//	client, err := ntfy.NewClient(
//	    ntfy.WithBaseURL("https://ntfy.example.com"),
//	    ntfy.WithAuth(ntfy.BearerToken(token)),
//	    ntfy.WithLogger(logger),
//	)
type Option func(*Client) error

// WithBaseURL sets the server address. Defaults to DefaultBaseURL.
// Ignored when WithTransport is used.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient sets the *http.Client used by the default transport.
// It must not set Timeout, or subscription streams will be cut off.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		if client.Timeout != 0 {
			return fmt.Errorf("http client must not set Timeout (got %v); bound calls with a context", client.Timeout)
		}
		c.httpClient = client
		return nil
	}
}

// WithAuth sets the credentials attached to every request.
func WithAuth(auth Auth) Option {
	return func(c *Client) error {
		if auth == nil {
			return fmt.Errorf("auth cannot be nil")
		}
		c.auth = auth
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

// WithTransport replaces the HTTP transport entirely. Base URL, HTTP client,
// auth and user agent options are then ignored.
func WithTransport(transport Transport) Option {
	return func(c *Client) error {
		if transport == nil {
			return fmt.Errorf("transport cannot be nil")
		}
		c.transport = transport
		return nil
	}
}

// WithLogger sets the logger instance. Defaults to NoopLogger.
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithReconnectStrategy sets the reconnect backoff for subscriptions.
// Defaults to retry.DefaultStrategy(): 1s → 2s → 4s … 1m (max), ±50% jitter.
func WithReconnectStrategy(strategy retry.Strategy) Option {
	return func(c *Client) error {
		if err := strategy.Validate(); err != nil {
			return err
		}
		c.strategy = strategy
		return nil
	}
}

// WithKeepaliveTimeout sets how long a subscription waits for any stream
// record before treating the connection as dead. The server sends a
// keepalive every 45s by default, so keep this comfortably above that.
// Defaults to DefaultKeepaliveTimeout.
func WithKeepaliveTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("keepalive timeout must be > 0, got %v", timeout)
		}
		c.keepaliveTimeout = timeout
		return nil
	}
}

// WithObserver receives subscription state changes and recoverable errors.
// Defaults to NoOpObserver.
func WithObserver(observer Observer) Option {
	return func(c *Client) error {
		if observer == nil {
			return fmt.Errorf("observer cannot be nil")
		}
		c.observer = observer
		return nil
	}
}

// WithWatermarkStore persists the last delivered message per subscription so
// a new Subscribe with an empty Since resumes where the previous one stopped.
func WithWatermarkStore(store WatermarkStore) Option {
	return func(c *Client) error {
		if store == nil {
			return fmt.Errorf("watermark store cannot be nil")
		}
		c.watermarks = store
		return nil
	}
}

// WithMessageArchive stores every delivered message.
func WithMessageArchive(archive MessageArchive) Option {
	return func(c *Client) error {
		if archive == nil {
			return fmt.Errorf("message archive cannot be nil")
		}
		c.archive = archive
		return nil
	}
}
