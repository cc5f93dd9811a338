// Package trigger asks the control API to start the relay once the upstream
// stream is ready.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smazurov/ffmpeg-sidecar/internal/version"
)

// Defaults used when no option overrides them.
const (
	DefaultURL     = "http://ffmpeg:5000/start/live"
	DefaultDelay   = time.Second
	DefaultTimeout = 10 * time.Second
)

// maxBodySize caps how much of the response body is kept.
const maxBodySize = 1 << 20

// Result is a successful start response.
type Result struct {
	StatusCode int
	Body       string
}

// RejectedError reports a non-2xx response from the control API.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError reports that no response was received: connection
// refused, DNS failure or timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client issues a single delayed start request.
type Client struct {
	url        string
	delay      time.Duration
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets the start endpoint.
func WithURL(u string) Option {
	return func(c *Client) { c.url = u }
}

// WithDelay sets the wait before the request is sent.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithTimeout bounds the request including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client with the default URL, delay and timeout.
func New(opts ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		delay:      DefaultDelay,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fire waits for the configured delay and sends one GET to the start URL.
// Errors are *RejectedError, *TransportError, or anything else for failures
// that fit neither category.
func (c *Client) Fire(ctx context.Context) (*Result, error) {
	if c.delay > 0 {
		c.logger.Debug("Waiting before start request", "delay", c.delay)
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("Sending start request", "url", c.url, "timeout", c.timeout)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, &TransportError{Err: urlErr.Err}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return &Result{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}, nil
}

// Message renders the outcome of Fire as a single line, naming the failure
// category.
func Message(res *Result, err error) string {
	var rejected *RejectedError
	var transport *TransportError
	switch {
	case err == nil && res != nil:
		return fmt.Sprintf("Successfully started ffmpeg: %d - %s", res.StatusCode, res.Body)
	case errors.As(err, &rejected):
		return "HTTP error starting ffmpeg: " + rejected.Error()
	case errors.As(err, &transport):
		return "URL error starting ffmpeg: " + transport.Error()
	case err != nil:
		return "Unexpected error starting ffmpeg: " + err.Error()
	default:
		return "Unexpected error starting ffmpeg: no response"
	}
}

// ExitCode maps the outcome of Fire to a process exit code.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
