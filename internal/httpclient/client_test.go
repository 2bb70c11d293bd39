package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer k"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(resp.Body) != `{"ok":true}` || resp.StatusCode != 200 || resp.Attempts != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetRetriesTransientStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(code)
					return
				}
				w.Write([]byte("done"))
			}))
			defer srv.Close()

			c := New(WithRetry(3, time.Millisecond))
			resp, err := c.Get(context.Background(), srv.URL, nil)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if resp.Attempts != 3 || calls.Load() != 3 {
				t.Errorf("attempts = %d, calls = %d, want 3", resp.Attempts, calls.Load())
			}
		})
	}
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(WithRetry(2, time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, nil)

	var herr *Error
	if !errors.As(err, &herr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if herr.Kind != KindHTTP || herr.StatusCode != 503 || herr.Attempts != 3 {
		t.Errorf("error = %+v", herr)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetClassifiesStatus(t *testing.T) {
	tests := []struct {
		code  int
		kind  Kind
		calls int32
	}{
		{http.StatusUnauthorized, KindAuth, 1},
		{http.StatusForbidden, KindAuth, 1},
		{http.StatusNotFound, KindHTTP, 1},
		{http.StatusTooManyRequests, KindRateLimit, 2},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			c := New(WithRetry(1, time.Millisecond))
			_, err := c.Get(context.Background(), srv.URL, nil)
			kind, ok := KindOf(err)
			if !ok || kind != tt.kind {
				t.Errorf("kind = %q (%v), want %q", kind, err, tt.kind)
			}
			if calls.Load() != tt.calls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.calls)
			}
		})
	}
}

func TestGetConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(WithRetry(1, time.Millisecond))
	_, err := c.Get(context.Background(), url, nil)
	if kind, _ := KindOf(err); kind != KindConnection {
		t.Errorf("kind = %q (%v), want connection", kind, err)
	}
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(WithTimeout(20*time.Millisecond), WithRetry(0, time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, nil)
	if kind, _ := KindOf(err); kind != KindTimeout {
		t.Errorf("kind = %q (%v), want timeout", kind, err)
	}
}

func TestGetStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(WithRetry(5, time.Millisecond))
	if _, err := c.Get(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if calls.Load() > 1 {
		t.Errorf("calls = %d, want at most 1", calls.Load())
	}
}

func TestBackoff(t *testing.T) {
	c := New(WithRetry(5, 100*time.Millisecond))
	c.backoffMax = time.Second

	for attempt, base := range map[int]time.Duration{1: 100, 2: 200, 3: 400, 5: 1000} {
		want := base * time.Millisecond
		got := c.backoff(attempt, 0)
		if got < want*3/4 || got > want*5/4 {
			t.Errorf("backoff(%d) = %v, want %v ±25%%", attempt, got, want)
		}
	}

	if got := c.backoff(1, 3*time.Second); got != 3*time.Second {
		t.Errorf("Retry-After ignored: %v", got)
	}
	if got := c.backoff(1, time.Hour); got != maxRetryAfter {
		t.Errorf("Retry-After not capped: %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("2"); got != 2*time.Second {
		t.Errorf("seconds = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("date = %v", got)
	}
	for _, v := range []string{"", "-1", "soon"} {
		if got := parseRetryAfter(v); got != 0 {
			t.Errorf("parseRetryAfter(%q) = %v, want 0", v, got)
		}
	}
}
