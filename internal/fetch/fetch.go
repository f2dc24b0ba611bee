package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultBaseDelay   = 1 * time.Second
	defaultMaxRetries  = 3

	statusErrorBodyLimit = 2048
)

// ErrInvalidRetries reports a negative retry budget, which is a programming
// error rather than a runtime condition.
var ErrInvalidRetries = errors.New("fetch: max retries must not be negative")

// ErrRetryFailed is returned when the retry loop exhausts its budget without
// capturing a concrete error. It should never surface in practice.
var ErrRetryFailed = errors.New("fetch: retry failed with unknown error")

// StatusError reports a non-2xx upstream response. The status code drives the
// retry classification: 4xx responses other than 429 are never retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("fetch: http %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch: http %d: %s", e.StatusCode, body)
}

// IsStatus reports whether err carries the given upstream HTTP status.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Client wraps an *http.Client with bounded exponential-backoff retry.
//
// Non-2xx responses are converted into *StatusError so callers and the retry
// policy can classify failures without inspecting response objects.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration

	sleeper func(time.Duration)
	jitter  func(time.Duration) time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxRetries overrides the default retry count (retries, not attempts).
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		c.maxRetries = retries
	}
}

// WithBaseDelay overrides the backoff base delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.baseDelay = delay
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithJitter overrides the jitter source (useful for deterministic tests).
// The function receives the base delay and returns the additive jitter.
func WithJitter(jitter func(time.Duration) time.Duration) Option {
	return func(c *Client) {
		c.jitter = jitter
	}
}

// NewClient constructs a retrying fetch client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get issues a GET request for url through the retry policy.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	return c.Do(ctx, req)
}

// Do executes the request, retrying transient failures with exponential
// backoff plus jitter. Client errors (4xx other than 429) fail immediately.
// On exhausting the retry budget the last captured error is returned.
//
// Only GET-style requests without a body are safe to pass here; the request
// is re-issued verbatim on each attempt.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.maxRetries < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRetries, c.maxRetries)
	}
	if req == nil {
		return nil, errors.New("fetch: nil request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if !retryable(err) {
			return nil, err
		}
		if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		return nil, ErrRetryFailed
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch: execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, statusErrorBodyLimit))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// retryable classifies an error for the retry policy. 4xx statuses other
// than 429 are client errors and never transient; everything else (5xx, 429,
// transport failures) is retried. Context cancellation stops the loop.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// backoffDelay computes base*2^attempt plus up to 50% of base as jitter.
// The exponent grows per attempt and is bounded only by the retry budget.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	if c.jitter != nil {
		return delay + c.jitter(c.baseDelay)
	}
	return delay + time.Duration(rand.Int63n(int64(c.baseDelay)/2+1))
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
