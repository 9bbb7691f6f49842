// Package apiclient talks to the boosting platform's admin REST API.
//
// Every typed method funnels through one request helper that attaches the
// bearer token, decodes the {success, data, message, error} envelope and turns
// non-2xx responses into *RequestError. Nothing is retried or cached.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"sbp-admin/internal/models"
	"sbp-admin/internal/telemetry"
	"sbp-admin/internal/tokenstore"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

type Client struct {
	baseURL string
	client  *http.Client
	timeout *time.Duration
	store   tokenstore.Store

	mu    sync.Mutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout bounds every request; zero disables the client side timeout.
// A client passed through WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// New builds a client for baseURL. A nil store keeps the token in memory only.
func New(baseURL string, store tokenstore.Store, opts ...Option) *Client {
	if store == nil {
		store = tokenstore.NewMemoryStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		store: store,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.client
		hc.Timeout = *c.timeout
		c.client = &hc
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken persists token and then keeps it in memory; later requests send it.
// When persisting fails the previous token stays in effect.
func (c *Client) SetToken(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	c.token = token
	return nil
}

// Token returns the in-memory token, loading it from the store on first use.
// It returns "" when no token was ever set.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	token, err := c.store.Get(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	c.token = token
	return token, nil
}

func (c *Client) ClearToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

func send[T any](ctx context.Context, c *Client, in call) (*models.Envelope[T], error) {
	var env models.Envelope[T]
	if err := c.request(ctx, in, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) request(ctx context.Context, in call, out any) error {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		telemetry.ObserveClientRequest(in.method, in.route, 0, time.Since(start))
		slog.Error("API request failed", "method", in.method, "path", in.path, "error", err)
		return fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	telemetry.ObserveClientRequest(in.method, in.route, resp.StatusCode, time.Since(start))
	if err != nil {
		slog.Error("API request failed", "method", in.method, "path", in.path, "error", err)
		return fmt.Errorf("%s %s: read response: %w", in.method, in.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := newRequestError(resp.StatusCode, raw)
		slog.Error("API request failed", "method", in.method, "path", in.path, "status", resp.StatusCode, "error", reqErr)
		return reqErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		slog.Error("API request failed", "method", in.method, "path", in.path, "error", err)
		return fmt.Errorf("%s %s: decode response: %w", in.method, in.path, err)
	}
	return nil
}

func idPath(prefix, id string, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func pageQuery(opts models.ListOptions) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("limit", strconv.Itoa(opts.Limit))
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Priority != "" {
		q.Set("priority", opts.Priority)
	}
	return q
}
