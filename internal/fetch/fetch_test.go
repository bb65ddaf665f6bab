package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, UserAgent: "playlog-test", MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}
	body, err := c.Get(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("expected body")
	}
	if gotQuery != "p=3" {
		t.Fatalf("query = %q, want p=3 with dt omitted", gotQuery)
	}
}

func TestGet_DaysAgoParam(t *testing.T) {
	var gotP, gotDT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotP = r.URL.Query().Get("p")
		gotDT = r.URL.Query().Get("dt")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}
	if _, err := c.Get(context.Background(), 2, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotP != "2" || gotDT != "4" {
		t.Fatalf("query p=%q dt=%q, want p=2 dt=4", gotP, gotDT)
	}
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(502)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, MaxAttempts: 2, PerRequestTimeout: 2 * time.Second, RetryDelay: time.Millisecond}
	if _, err := c.Get(context.Background(), 1, 0); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestGet_ExhaustedRetriesCarryLastFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, MaxAttempts: 3, PerRequestTimeout: 2 * time.Second, RetryDelay: time.Millisecond}
	_, err := c.Get(context.Background(), 1, 0)
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if want := "unexpected status: 404"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q should carry last failure %q", err, want)
	}
}

func TestGet_EmptyBodyIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}
	if _, err := c.Get(context.Background(), 1, 0); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestGet_ContextCancelStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Client{BaseURL: srv.URL, MaxAttempts: 5, PerRequestTimeout: 2 * time.Second, RetryDelay: time.Hour}
	if _, err := c.Get(ctx, 1, 0); err == nil {
		t.Fatalf("expected error when context already cancelled")
	}
}
