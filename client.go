package ntfy

import (
	"net/http"
	"time"

	"github.com/coregx/ntfy/retry"
)

// DefaultBaseURL is the public ntfy server.
const DefaultBaseURL = "https://ntfy.sh"

// DefaultKeepaliveTimeout is how long a subscription tolerates silence.
const DefaultKeepaliveTimeout = 2 * time.Minute

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "coregx-ntfy/0.1"

// Client talks to one ntfy server. It publishes to and subscribes on any
// topic of that server; use TopicClient to bind a single topic.
//
// All configuration is passed at construction; a Client holds no state
// shared between subscriptions and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Auth
	userAgent  string
	transport  Transport

	logger           Logger
	observer         Observer
	strategy         retry.Strategy
	keepaliveTimeout time.Duration
	watermarks       WatermarkStore
	archive          MessageArchive
}

// NewClient creates a new Client with the provided options.
//
// Example:
//
//	client, err := ntfy.NewClient(
//	    ntfy.WithBaseURL("https://ntfy.example.com"),
//	    ntfy.WithAuth(ntfy.BasicAuth("phil", "secret")),
//	)
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:          DefaultBaseURL,
		userAgent:        DefaultUserAgent,
		logger:           &NoopLogger{},
		observer:         &NoOpObserver{},
		strategy:         retry.DefaultStrategy(),
		keepaliveTimeout: DefaultKeepaliveTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply client option", err)
		}
	}

	if c.transport == nil {
		t, err := NewHTTPTransport(c.baseURL, c.httpClient, c.auth, c.userAgent)
		if err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to create transport", err)
		}
		c.transport = t
	}

	return c, nil
}

// BaseURL returns the configured server address. It is empty when a custom
// transport that does not expose one is in use.
func (c *Client) BaseURL() string {
	if t, ok := c.transport.(interface{ BaseURL() string }); ok {
		return t.BaseURL()
	}
	return ""
}

// Logger returns the client's logger.
func (c *Client) Logger() Logger {
	return c.logger
}
