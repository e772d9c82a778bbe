package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseKind selects how a successful response body is decoded.
type ResponseKind int

const (
	KindJSON ResponseKind = iota
	KindBinary
)

// AuthExpiredHandler is notified after a 401 cleared the stored credential.
type AuthExpiredHandler func(ctx context.Context, err *AuthExpiredError)

// Client is the single entry point for every call to the portal API. It
// injects the stored bearer token and classifies failures.
type Client struct {
	baseURL string
	doer    Doer
	store   CredentialStore
	origin  string
	logger  *zap.Logger

	mu       sync.Mutex
	handlers []AuthExpiredHandler
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the HTTP transport.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTimeout sets the timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.doer = &http.Client{Timeout: d} }
}

// WithOrigin makes the client send an Origin header and reject responses
// that do not allow it, the way a browser enforces CORS.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = strings.TrimRight(origin, "/") }
}

// WithLogger sets the logger used for credential and auth-expiry events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, store CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the credential store used by the client.
func (c *Client) Store() CredentialStore {
	return c.store
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnAuthExpired subscribes h to the auth-expired event. It returns a
// function that removes the subscription.
func (c *Client) OnAuthExpired(h AuthExpiredHandler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
	idx := len(c.handlers) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.handlers) {
			c.handlers[idx] = nil
		}
	}
}

type requestOptions struct {
	kind ResponseKind
}

// RequestOption tunes a single Request call.
type RequestOption func(*requestOptions)

// WithResponseKind selects JSON (default) or binary decoding. For binary
// responses out must be a *[]byte or an io.Writer.
func WithResponseKind(k ResponseKind) RequestOption {
	return func(o *requestOptions) { o.kind = k }
}

// Request sends method to the server-relative path. A non-nil body is
// encoded as JSON; a successful response is decoded into out (nil discards).
//
// Failures are classified in this order: no response (*NetworkError),
// rejected origin (*CorsError), 401 (*AuthExpiredError, credential cleared),
// 503 (*ServiceUnavailableError), any other non-2xx (*HTTPError).
func (c *Client) Request(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	ro := requestOptions{kind: KindJSON}
	for _, opt := range opts {
		opt(&ro)
	}

	req, err := c.newRequest(ctx, method, path, body, ro.kind)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if err := c.checkOrigin(resp); err != nil {
		return err
	}

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		authErr := &AuthExpiredError{Body: data}
		c.expire(ctx, authErr)
		return authErr
	case status == http.StatusServiceUnavailable:
		return &ServiceUnavailableError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       data,
		}
	case status < 200 || status > 299:
		return &HTTPError{Status: status, Body: data, Message: serverMessage(data)}
	}

	return decodeBody(method+" "+path, data, out, ro.kind)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, kind ResponseKind) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+CleanPath(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if kind == KindJSON {
		req.Header.Set("Accept", "application/json")
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	token, err := c.store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// checkOrigin emulates browser CORS enforcement when an origin is configured.
func (c *Client) checkOrigin(resp *http.Response) error {
	if c.origin == "" {
		return nil
	}
	allowed := resp.Header.Get("Access-Control-Allow-Origin")
	if allowed == "*" || strings.TrimRight(allowed, "/") == c.origin {
		return nil
	}
	return &CorsError{Origin: c.origin, Allowed: allowed}
}

// expire clears the stored credential and notifies subscribers.
func (c *Client) expire(ctx context.Context, authErr *AuthExpiredError) {
	if err := c.store.ClearToken(ctx); err != nil {
		c.logger.Error("failed to clear credential after 401", zap.Error(err))
	}
	c.logger.Info("authentication expired, credential cleared")

	c.mu.Lock()
	handlers := make([]AuthExpiredHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ctx, authErr)
	}
}

func decodeBody(route string, data []byte, out any, kind ResponseKind) error {
	if out == nil {
		return nil
	}

	if kind == KindBinary {
		switch dst := out.(type) {
		case *[]byte:
			*dst = data
			return nil
		case io.Writer:
			_, err := dst.Write(data)
			return err
		default:
			return fmt.Errorf("binary response needs *[]byte or io.Writer, got %T", out)
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &InvalidResponseError{Route: route, Body: data, Err: err}
	}
	return nil
}

// CleanPath normalizes a server-relative route: a leading "/api" segment is
// dropped (the base URL already carries it) and a leading slash is ensured.
func CleanPath(p string) string {
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		p = p[len("/api"):]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
