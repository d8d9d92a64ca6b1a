// ABOUTME: Configured HTTP client for the MBG backend plus a per-base-URL factory
// ABOUTME: Sends JSON requests through the bearer transport and classifies failures
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/mbgctl/credentials"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// Client talks to one backend base URL. Safe for concurrent use.
type Client struct {
	baseURL *url.URL
	store   credentials.Store
	http    *http.Client
	logger  *slog.Logger
}

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
	headers    http.Header
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHTTPClient sets the underlying client. Its Transport becomes the base the
// bearer transport wraps.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics instruments the transport.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithHeader adds a default header sent on every request unless the request sets it.
func WithHeader(key, value string) Option {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Add(key, value)
	}
}

// New builds a client for baseURL whose requests carry the store's access token.
func New(baseURL string, store credentials.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https: %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %q", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var base http.RoundTripper = http.DefaultTransport
	hc := &http.Client{}
	if o.httpClient != nil {
		copied := *o.httpClient
		hc = &copied
		if hc.Transport != nil {
			base = hc.Transport
		}
	}
	if o.metrics != nil {
		base = o.metrics.wrap(base)
	}
	hc.Transport = &authTransport{store: store, headers: o.headers, base: base}

	return &Client{baseURL: u, store: store, http: hc, logger: o.logger}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Store returns the credential store the client reads tokens from.
func (c *Client) Store() credentials.Store {
	return c.store
}

// URL resolves path and query against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// Send issues one request. body, when non-nil, is encoded as JSON. The raw
// response body is returned on 2xx; anything else is an *Error.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Method: method, Path: path,
				Message: "failed to encode request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "error", err)
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Method: method,
			Path: path, Message: "failed to read response body", Err: err}
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

// Factory hands out one Client per base URL, all sharing a store and options.
type Factory struct {
	store credentials.Store
	opts  []Option

	mu      sync.Mutex
	clients map[string]*Client
}

// NewFactory creates a factory bound to store.
func NewFactory(store credentials.Store, opts ...Option) *Factory {
	return &Factory{store: store, opts: opts, clients: make(map[string]*Client)}
}

// For returns the client for baseURL, creating it on first use.
func (f *Factory) For(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	key := strings.TrimSuffix(baseURL, "/")

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c, nil
	}
	c, err := New(baseURL, f.store, f.opts...)
	if err != nil {
		return nil, err
	}
	f.clients[key] = c
	return c, nil
}
