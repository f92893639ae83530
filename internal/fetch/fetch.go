package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"github.com/0khacha/web-scraper/internal/config"
)

// Response is the outcome of a successful fetch.
type Response struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the final HTTP status code.
	StatusCode int

	// HTML is the decoded response body.
	HTML string

	// Header holds the response headers.
	Header http.Header
}

// FetchError reports a failed fetch with the final status code when one
// was received. StatusCode is zero for transport-level failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves a page. Implementations must be safe for concurrent
// use; batch scraping shares one fetcher across workers.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// defaultUserAgents is rotated across requests to avoid trivial
// fingerprinting by scraped sites.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// HTTPFetcher fetches pages with a resty client.
type HTTPFetcher struct {
	client *resty.Client

	// userAgents to rotate across requests.
	userAgents []string

	// delayMin and delayMax bound the random pause between requests.
	delayMin time.Duration
	delayMax time.Duration

	// maxBodySize caps how much of a response body is kept.
	maxBodySize int64

	// pacing state.
	mu          sync.Mutex
	lastRequest time.Time
	rng         *rand.Rand
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.client.SetTimeout(d)
	}
}

// WithRetries sets the number of retry attempts for transient failures.
func WithRetries(n int) Option {
	return func(f *HTTPFetcher) {
		f.client.SetRetryCount(n)
	}
}

// WithRetryWait bounds the exponential backoff between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.client.SetRetryWaitTime(min)
		f.client.SetRetryMaxWaitTime(max)
	}
}

// WithDelayRange sets the random pause between consecutive requests.
// Zero for both disables pacing.
func WithDelayRange(min, max time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.delayMin = min
		f.delayMax = max
	}
}

// WithProxy routes all requests through a proxy URL.
func WithProxy(proxyURL string) Option {
	return func(f *HTTPFetcher) {
		if proxyURL != "" {
			f.client.SetProxy(proxyURL)
		}
	}
}

// WithHeaders sets extra headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.client.SetHeaders(headers)
	}
}

// WithUserAgents replaces the rotation list.
func WithUserAgents(agents []string) Option {
	return func(f *HTTPFetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// WithMaxBodySize caps the retained response body in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = n
	}
}

// NewHTTPFetcher creates a fetcher with retry and pacing defaults from
// the configuration package.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	client := resty.New().
		SetTimeout(config.DefaultTimeout).
		SetRetryCount(config.DefaultRetries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)

	// Retry on transport errors, server errors, and rate limiting.
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError ||
			r.StatusCode() == http.StatusTooManyRequests
	})

	f := &HTTPFetcher{
		client:      client,
		userAgents:  defaultUserAgents,
		delayMin:    config.DefaultDelayMin,
		delayMax:    config.DefaultDelayMax,
		maxBodySize: config.DefaultMaxBodySize,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves a page. Retries happen inside the client; a returned
// error means the URL is exhausted for this cycle. Non-2xx final
// responses are reported as a *FetchError carrying the status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	f.pace(ctx)

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.nextUserAgent()).
		Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode()}
	}

	html, err := f.decodeBody(resp)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode(),
		HTML:       html,
		Header:     resp.Header(),
	}, nil
}

// decodeBody converts the body to UTF-8 based on the declared charset,
// falling back to the raw bytes when decoding fails.
func (f *HTTPFetcher) decodeBody(resp *resty.Response) (string, error) {
	body := resp.Body()
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		body = body[:f.maxBodySize]
	}

	contentType := resp.Header().Get("Content-Type")
	reader, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		return string(body), nil
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body), nil
	}
	return string(decoded), nil
}

// pace sleeps a random duration within the configured delay range,
// measured from the previous request. The pause is shared across all
// goroutines using this fetcher, which keeps the aggregate request rate
// polite regardless of concurrency.
func (f *HTTPFetcher) pace(ctx context.Context) {
	f.mu.Lock()

	if f.delayMax <= 0 {
		f.lastRequest = time.Now()
		f.mu.Unlock()
		return
	}

	delay := f.delayMin
	if span := f.delayMax - f.delayMin; span > 0 {
		delay += time.Duration(f.rng.Int63n(int64(span)))
	}

	wait := delay - time.Since(f.lastRequest)
	f.lastRequest = time.Now().Add(wait)
	f.mu.Unlock()

	if wait <= 0 {
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// nextUserAgent picks a random user agent from the rotation list.
func (f *HTTPFetcher) nextUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userAgents[f.rng.Intn(len(f.userAgents))]
}
