package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") != "bitcoin" {
			t.Errorf("Expected ids=bitcoin, got %s", r.URL.Query().Get("ids"))
		}
		w.Write([]byte(`{"bitcoin":{"usd":50000}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0))
	params := url.Values{}
	params.Set("ids", "bitcoin")

	body, err := c.GetJSON(context.Background(), "/simple/price", params)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if string(body) != `{"bitcoin":{"usd":50000}}` {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestGetJSONThrottlesRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	interval := 50 * time.Millisecond
	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(interval))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.GetJSON(context.Background(), "/", nil); err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// first call goes straight through, the next two each wait an interval
	if elapsed < 2*interval {
		t.Errorf("Expected at least %v across three calls, took %v", 2*interval, elapsed)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 upstream calls, got %d", n)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0), WithMaxRetries(3))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.GetJSON(ctx, "/", nil); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestGetJSONHonorsRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0), WithMaxRetries(1))

	start := time.Now()
	if _, err := c.GetJSON(context.Background(), "/", nil); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 1*time.Second {
		t.Errorf("Expected Retry-After wait of 1s, took %v", elapsed)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected 2 attempts, got %d", n)
	}
}

func TestGetJSONRateLimitExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0), WithMaxRetries(1))

	_, err := c.GetJSON(context.Background(), "/", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestGetJSONDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0), WithMaxRetries(3))

	_, err := c.GetJSON(context.Background(), "/missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected exactly 1 attempt for 404, got %d", n)
	}
}

func TestGetJSONContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// second call blocks in the throttle and must bail on the deadline
	if _, err := c.GetJSON(context.Background(), "/", nil); err != nil {
		t.Fatalf("first GetJSON failed: %v", err)
	}
	_, err := c.GetJSON(ctx, "/", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestThrottleReleasesSlotOnCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	interval := 600 * time.Millisecond
	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(interval))

	if _, err := c.GetJSON(context.Background(), "/", nil); err != nil {
		t.Fatalf("first GetJSON failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.GetJSON(ctx, "/", nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected DeadlineExceeded, got %v", err)
	}

	// the cancelled call made no request, so the next one waits out the
	// remainder of the first call's interval, not an extra full one
	start := time.Now()
	if _, err := c.GetJSON(context.Background(), "/", nil); err != nil {
		t.Fatalf("third GetJSON failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= interval {
		t.Errorf("Expected cancelled reservation to be released, third call waited %v", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("5"); d != 5*time.Second {
		t.Errorf("Expected 5s, got %v", d)
	}
	if d := parseRetryAfter(""); d != retryAfterFallback {
		t.Errorf("Expected fallback for empty header, got %v", d)
	}
	if d := parseRetryAfter("soon"); d != retryAfterFallback {
		t.Errorf("Expected fallback for junk header, got %v", d)
	}
}
