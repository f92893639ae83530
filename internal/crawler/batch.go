package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/0khacha/web-scraper/internal/model"
)

// BatchResult is the outcome for one URL of a batch run.
type BatchResult struct {
	// URL that was processed.
	URL string

	// Items that survived the pipeline for this URL.
	Items []model.Item

	// Status is success, failed, or skipped.
	Status model.Status

	// Strategy names the extraction strategy used, empty unless success.
	Strategy string
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	// SessionID identifies the shared session, empty for stateless runs.
	SessionID string

	// Results holds one entry per input URL, in input order.
	Results []BatchResult
}

// Succeeded counts URLs that were fetched and processed.
func (s *BatchSummary) Succeeded() int { return s.count(model.StatusSuccess) }

// Failed counts URLs whose fetch failed after retries.
func (s *BatchSummary) Failed() int { return s.count(model.StatusFailed) }

// Skipped counts URLs a previous session already visited.
func (s *BatchSummary) Skipped() int { return s.count(model.StatusSkipped) }

func (s *BatchSummary) count(status model.Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Items returns all items from all URLs, in input order.
func (s *BatchSummary) Items() []model.Item {
	var items []model.Item
	for _, r := range s.Results {
		items = append(items, r.Items...)
	}
	return items
}

// RunBatch processes each URL once (no pagination) with at most
// concurrency in-flight fetches. All URLs share one session; one URL
// failing never aborts the others. Results keep input order regardless of
// completion order.
//
// Design decision: Workers come from errgroup.SetLimit rather than a
// hand-rolled channel pool. The group owns goroutine lifecycle and
// context propagation, and the limit is the only tunable we need.
func (c *Controller) RunBatch(ctx context.Context, urls []string, concurrency int) (*BatchSummary, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	summary := &BatchSummary{Results: make([]BatchResult, len(urls))}

	if c.store != nil {
		sessionID, err := c.store.StartSession(ctx, firstOrEmpty(urls), map[string]any{
			"total_urls":  len(urls),
			"concurrency": concurrency,
		})
		if err != nil {
			return nil, err
		}
		summary.SessionID = sessionID
		defer func() {
			if err := c.store.EndSession(context.WithoutCancel(ctx), sessionID); err != nil {
				c.logger.Warn("failed to end session", "session_id", sessionID, "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rawURL := range urls {
		i, rawURL := i, rawURL
		g.Go(func() error {
			status, page := c.processPage(gctx, rawURL, summary.SessionID)
			summary.Results[i] = BatchResult{
				URL:      rawURL,
				Items:    page.Items,
				Status:   status,
				Strategy: page.Strategy,
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func firstOrEmpty(urls []string) string {
	if len(urls) > 0 {
		return urls[0]
	}
	return ""
}
