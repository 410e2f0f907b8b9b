package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a transport-neutral description of one call to the server.
// Path is relative to the transport's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully buffered server answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport carries requests to one logical server.
//
// Implementations scope every request to their base address and attach
// credentials themselves; callers never see either.
type Transport interface {
	// Stream issues a long-lived GET and returns the body for incremental
	// reading. Non-success statuses are returned as *ConnectionError.
	// Cancelling ctx aborts the stream; the caller must close the body.
	Stream(ctx context.Context, req *Request) (io.ReadCloser, error)

	// Do issues a request and buffers the full response, whatever its status.
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Auth attaches credentials to outgoing requests.
type Auth interface {
	Apply(h http.Header)
}

type bearerAuth string

func (a bearerAuth) Apply(h http.Header) {
	h.Set("Authorization", "Bearer "+string(a))
}

// BearerToken authenticates with an access token.
func BearerToken(token string) Auth {
	return bearerAuth(token)
}

type basicAuth struct {
	user, password string
}

func (a basicAuth) Apply(h http.Header) {
	r := http.Request{Header: h}
	r.SetBasicAuth(a.user, a.password)
}

// BasicAuth authenticates with a username and password.
func BasicAuth(user, password string) Auth {
	return basicAuth{user: user, password: password}
}

// maxResponseBody bounds buffered responses and error bodies.
const maxResponseBody = 1 << 20

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	base      *url.URL
	client    *http.Client
	auth      Auth
	userAgent string
}

// NewHTTPTransport creates a transport scoped to baseURL.
//
// The http.Client must not set Timeout: subscription streams stay open
// indefinitely. Bound individual calls with their context instead.
// A nil client uses a new client on http.DefaultTransport.
func NewHTTPTransport(baseURL string, client *http.Client, auth Auth, userAgent string) (*HTTPTransport, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{base: u, client: client, auth: auth, userAgent: userAgent}, nil
}

// BaseURL returns the server address requests are scoped to.
func (t *HTTPTransport) BaseURL() string {
	return t.base.String()
}

func (t *HTTPTransport) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := *t.base
	u.Path = t.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}
	if t.auth != nil {
		t.auth.Apply(r.Header)
	}
	return r, nil
}

// Stream implements Transport.
func (t *HTTPTransport) Stream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	r, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, &ConnectionError{Message: "failed to build request", Err: err}
	}

	resp, err := t.client.Do(r)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_, message := decodeServerError(b)
		return nil, &ConnectionError{StatusCode: resp.StatusCode, Message: message}
	}

	return resp.Body, nil
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// serverError is the JSON error document returned by the server.
type serverError struct {
	Code  int    `json:"code"`
	HTTP  int    `json:"http"`
	Error string `json:"error"`
	Link  string `json:"link,omitempty"`
}

// decodeServerError extracts the server's error code and text. Bodies that
// are not error documents are returned as trimmed text.
func decodeServerError(body []byte) (int, string) {
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil && se.Error != "" {
		return se.Code, se.Error
	}
	return 0, strings.TrimSpace(string(body))
}
