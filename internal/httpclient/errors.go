package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Kind categorises a transport failure.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindHTTP       Kind = "http"
	KindMalformed  Kind = "malformed"
)

// Error is a failed request after retries were exhausted or ruled out.
type Error struct {
	Kind       Kind
	StatusCode int
	URL        string
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " fetching %s", e.URL)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the category of a transport error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Malformed reports a response whose body could not be interpreted.
func Malformed(url string, err error) *Error {
	return &Error{Kind: KindMalformed, URL: url, Err: err}
}

func statusError(url string, code int, body []byte) *Error {
	e := &Error{Kind: KindHTTP, StatusCode: code, URL: url}
	switch code {
	case http.StatusUnauthorized:
		e.Kind = KindAuth
		e.Err = errors.New("invalid API key")
	case http.StatusForbidden:
		e.Kind = KindAuth
		e.Err = errors.New("access forbidden")
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimit
		e.Err = errors.New("rate limit exceeded")
	default:
		e.Err = errors.New(truncate(strings.TrimSpace(string(body)), 200))
	}
	return e
}

// classify maps a client-side failure onto a Kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}

// retryableError reports whether a client-side failure is worth another
// attempt. A per-request timeout is; caller cancellation is checked
// separately.
func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "connection refused", "broken pipe", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
