package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 10 * time.Second
	maxRetryAfter      = 60 * time.Second
)

// Client is an HTTP client with rate limiting and bounded retries.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry sets how many times a failed request is retried and the first
// backoff delay. Delays double per attempt.
func WithRetry(maxRetries int, base time.Duration) Option {
	return func(cl *Client) {
		cl.maxRetries = max(maxRetries, 0)
		if base > 0 {
			cl.backoffBase = base
			cl.backoffMax = max(cl.backoffMax, base)
		}
	}
}

// New creates a new HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: defaultTimeout},
		maxRetries:  3,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response wraps an HTTP response body and metadata.
type Response struct {
	Body       []byte
	StatusCode int
	Attempts   int
}

// Get performs an HTTP GET, retrying on 429, 5xx gateway errors and
// transient network failures. Failures are returned as *Error.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	attempts := c.maxRetries + 1
	var lastErr *Error

	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: classify(err), URL: url, Attempts: attempt - 1, Err: fmt.Errorf("rate limit wait: %w", err)}
			}
		}

		resp, retryAfter, err := c.do(ctx, url, headers)
		if err == nil {
			if attempt > 1 {
				slog.Info("request succeeded after retry", "url", url, "attempts", attempt)
			}
			resp.Attempts = attempt
			return resp, nil
		}

		err.Attempts = attempt
		lastErr = err
		if !c.shouldRetry(ctx, err) || attempt == attempts {
			break
		}

		delay := c.backoff(attempt, retryAfter)
		slog.Warn("request failed, retrying",
			"url", url, "attempt", attempt, "max_attempts", attempts,
			"kind", err.Kind, "status", err.StatusCode, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, &Error{Kind: classify(ctx.Err()), URL: url, Attempts: attempt, Err: ctx.Err()}
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*Response, time.Duration, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &Error{Kind: KindConnection, URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &Error{Kind: classify(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &Error{Kind: classify(err), URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), statusError(url, resp.StatusCode, body)
	}
	return &Response{Body: body, StatusCode: resp.StatusCode}, 0, nil
}

func (c *Client) shouldRetry(ctx context.Context, err *Error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err.StatusCode != 0 {
		return retryableStatus(err.StatusCode)
	}
	return retryableError(err.Err)
}

// backoff returns base·2^(attempt-1) with ±25% jitter, capped at the
// configured maximum. A server-supplied Retry-After wins.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, maxRetryAfter)
	}
	delay := c.backoffBase << (attempt - 1)
	if delay <= 0 || delay > c.backoffMax {
		delay = c.backoffMax
	}
	jitter := time.Duration(rand.Float64()*float64(delay)*0.5) - delay/4
	return delay + jitter
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
