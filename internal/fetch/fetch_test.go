package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestFetcher builds a fetcher with pacing and backoff tuned for tests.
func newTestFetcher(opts ...Option) *HTTPFetcher {
	base := []Option{
		WithDelayRange(0, 0),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
		WithTimeout(5 * time.Second),
	}
	return NewHTTPFetcher(append(base, opts...)...)
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request carried no User-Agent header")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if !strings.Contains(resp.HTML, "ok") {
		t.Errorf("HTML = %q", resp.HTML)
	}
	if resp.URL != srv.URL {
		t.Errorf("URL = %q, want %q", resp.URL, srv.URL)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html>recovered</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(WithRetries(3))
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v after transient 500s", err)
	}
	if !strings.Contains(resp.HTML, "recovered") {
		t.Errorf("HTML = %q", resp.HTML)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestFetchExhaustedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(WithRetries(2))
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Fetch() succeeded, want error after exhausted retries")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", fe.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want initial + 2 retries", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(WithRetries(3))
	_, err := f.Fetch(context.Background(), srv.URL)

	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want *FetchError with 404", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (404 is not retryable)", got)
	}
}

func TestFetchTransportError(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(WithRetries(0), WithTimeout(500*time.Millisecond))
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("Fetch() succeeded against an unreachable address")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport errors", fe.StatusCode)
	}
	if fe.Unwrap() == nil {
		t.Error("Unwrap() = nil, want the underlying transport error")
	}
}

func TestFetchMaxBodySize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := newTestFetcher(WithMaxBodySize(1024))
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(resp.HTML) != 1024 {
		t.Errorf("len(HTML) = %d, want truncation to 1024", len(resp.HTML))
	}
}

func TestFetchUserAgentRotation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	f := newTestFetcher(WithUserAgents([]string{"agent-under-test/1.0"}))
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.HTML != "agent-under-test/1.0" {
		t.Errorf("User-Agent = %q", resp.HTML)
	}
}

func TestPaceRespectsContext(t *testing.T) {
	t.Parallel()

	f := NewHTTPFetcher(WithDelayRange(time.Hour, time.Hour))
	// Prime lastRequest so the second call would wait.
	f.mu.Lock()
	f.lastRequest = time.Now()
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.pace(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pace() did not return after context cancellation")
	}
}
