package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"crypto-pulse/internal/logger"
)

// Error taxonomy for upstream calls. Callers branch on these with errors.Is.
var (
	// ErrUpstreamUnavailable covers network failures and 5xx responses that
	// survived every retry.
	ErrUpstreamUnavailable = errors.New("api: upstream unavailable")
	// ErrRateLimited means a 429 persisted through the bounded retry budget.
	ErrRateLimited = errors.New("api: rate limited")
	// ErrNotFound means the resource is permanently absent; never retried.
	ErrNotFound = errors.New("api: not found")
)

const (
	defaultMinInterval = 1200 * time.Millisecond
	defaultTimeout     = 10 * time.Second
	defaultMaxRetries  = 3
	backoffBase        = 1 * time.Second
	retryAfterFallback = 60 * time.Second
)

// Client wraps outbound HTTP with a minimum-interval throttle, retry with
// exponential backoff, and Retry-After handling on 429. The throttle state is
// per-instance: clients for different upstreams do not serialize against each
// other.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	headers     map[string]string
	minInterval time.Duration
	maxRetries  int
	useLogging  bool

	mu       sync.Mutex
	lastCall time.Time
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithMinInterval sets the minimum wall-clock gap between requests
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.minInterval = d
	}
}

// WithMaxRetries bounds the retry budget for 429/5xx/network failures
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogging enables request logging for the client
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// NewClient creates a new rate-limited client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		headers:     make(map[string]string),
		minInterval: defaultMinInterval,
		maxRetries:  defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// throttle blocks until at least minInterval has elapsed since the previous
// request through this client, or the context is cancelled.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	prev := c.lastCall
	wait := c.minInterval - time.Since(prev)
	if wait < 0 {
		wait = 0
	}
	reserved := time.Now().Add(wait)
	c.lastCall = reserved
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	if err := sleepCtx(ctx, wait); err != nil {
		// No request was made, so release the slot unless a later
		// caller has already reserved past it.
		c.mu.Lock()
		if c.lastCall.Equal(reserved) {
			c.lastCall = prev
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// GetJSON performs a throttled GET and returns the response body. params are
// appended as query parameters. Retries follow the error taxonomy: 429 sleeps
// per Retry-After, 5xx and network errors back off exponentially, 4xx fails
// immediately.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		body, retryIn, err := c.doOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Permanent failures are never retried.
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		if retryIn == 0 {
			retryIn = backoffBase * (1 << attempt)
		}
		c.logWarn(ctx, "Upstream call failed, retrying",
			"url", reqURL, "attempt", attempt+1, "retry_in", retryIn.String(), "error", err)
		if err := sleepCtx(ctx, retryIn); err != nil {
			return nil, err
		}
	}

	c.logError(ctx, "Upstream call exhausted retries", "url", reqURL, "error", lastErr)
	return nil, lastErr
}

// doOnce executes a single GET. The returned duration is a server-mandated
// wait (429 Retry-After) that overrides the backoff schedule.
func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	c.logDebug(ctx, "HTTP Request", "method", http.MethodGet, "url", reqURL)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	c.logDebug(ctx, "HTTP Response",
		"url", reqURL,
		"status", resp.StatusCode,
		"duration", time.Since(startTime),
		"bodySize", len(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%w: HTTP 429", ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, reqURL)
	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, 0, fmt.Errorf("%w: HTTP %d: %s", ErrNotFound, resp.StatusCode, string(body))
	}

	return body, 0, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return retryAfterFallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return retryAfterFallback
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// logDebug logs debug messages using the global logger
func (c *Client) logDebug(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

// logWarn logs warning messages using the global logger
func (c *Client) logWarn(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}

// logError logs error messages using the global logger
func (c *Client) logError(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Error(ctx, msg, args...)
	}
}
