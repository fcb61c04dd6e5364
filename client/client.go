// Package client is a Go client of the chatview JSON API. It satisfies
// view.Source, so the browser controller can run against a remote server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/sonnes/chatview/core"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	// Message is the "error" field of the response body, when present.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client talks to a chatview server.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outgoing requests at rps per second. Zero or negative
// disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a Client for the server at baseURL, e.g. http://localhost:3001.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListSessions fetches the session index, most recently started first.
func (c *Client) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	var out []core.SessionSummary
	if err := c.get(ctx, "/api/sessions", &out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if out == nil {
		out = []core.SessionSummary{}
	}
	return out, nil
}

// ListMessages fetches the records of one session in ascending id order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	var out []core.Record
	if err := c.get(ctx, "/api/messages/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", sessionID, err)
	}
	if out == nil {
		out = []core.Record{}
	}
	return out, nil
}

// ListAllMessages fetches every record in ascending id order.
func (c *Client) ListAllMessages(ctx context.Context) ([]core.Record, error) {
	var out []core.Record
	if err := c.get(ctx, "/api/messages", &out); err != nil {
		return nil, fmt.Errorf("list all messages: %w", err)
	}
	if out == nil {
		out = []core.Record{}
	}
	return out, nil
}

// Ping checks the server's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil)
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	// The path is appended raw so escaped session ids survive.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug("api request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	serr := &StatusError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		serr.Message = body.Error
	}
	return serr
}
