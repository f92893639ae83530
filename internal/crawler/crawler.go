package crawler

import (
	"context"
	"log/slog"

	"github.com/0khacha/web-scraper/internal/config"
	"github.com/0khacha/web-scraper/internal/extract"
	"github.com/0khacha/web-scraper/internal/fetch"
	"github.com/0khacha/web-scraper/internal/model"
	"github.com/0khacha/web-scraper/internal/pipeline"
	"github.com/0khacha/web-scraper/internal/state"
)

// Controller drives one crawl: fetch a page, extract items, run them
// through the pipeline, record the visit, and decide whether a next page
// exists. It is the only component that writes to the state store, so
// visit records and saved items always agree.
type Controller struct {
	// fetcher retrieves pages.
	fetcher fetch.Fetcher

	// engine extracts items from fetched HTML.
	engine *extract.Engine

	// chain post-processes extracted items.
	chain *pipeline.Chain

	// store persists visits and items. Nil runs the crawl stateless.
	store *state.Store

	// site is the resolved configuration for the target, may be nil.
	site *config.SiteConfig

	// maxPages bounds the pagination chain when the site config doesn't.
	maxPages int

	// maxItems truncates accumulated results when the site config doesn't.
	// 0 means unlimited.
	maxItems int

	// logger for structured logging.
	logger *slog.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithStore enables persistent visit and item tracking.
func WithStore(store *state.Store) ControllerOption {
	return func(c *Controller) {
		c.store = store
	}
}

// WithSiteConfig sets the site configuration for extraction and pagination.
func WithSiteConfig(site *config.SiteConfig) ControllerOption {
	return func(c *Controller) {
		c.site = site
	}
}

// WithMaxPages sets the default pagination bound.
func WithMaxPages(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithMaxItems sets the default item cap. 0 means unlimited.
func WithMaxItems(n int) ControllerOption {
	return func(c *Controller) {
		c.maxItems = n
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a crawl controller.
func NewController(fetcher fetch.Fetcher, engine *extract.Engine, chain *pipeline.Chain, opts ...ControllerOption) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		engine:   engine,
		chain:    chain,
		maxPages: config.DefaultMaxPages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result summarizes one crawl.
type Result struct {
	// SessionID identifies the session recorded in the state store.
	// Empty for stateless runs.
	SessionID string

	// StartURL is where the crawl began.
	StartURL string

	// Items holds every item that survived the pipeline, in page order.
	Items []model.Item

	// PagesVisited counts successfully processed pages.
	PagesVisited int

	// PagesFailed counts pages whose fetch failed after retries.
	PagesFailed int

	// PagesSkipped counts pages skipped because a previous session
	// already visited them.
	PagesSkipped int

	// Strategy names the extraction strategy used on the first page.
	Strategy string
}

// Run crawls from startURL, following pagination until a terminal
// condition. Terminal conditions, checked in order after each page:
// fetch failure, item cap reached, page bound reached, no next URL.
//
// A page already visited by an earlier session is recorded as skipped and
// ends the chain: its successors were reached through it last time, so
// re-walking them would only repeat work an earlier run completed.
func (c *Controller) Run(ctx context.Context, startURL string) (*Result, error) {
	res := &Result{StartURL: startURL}

	if c.store != nil {
		sessionID, err := c.store.StartSession(ctx, startURL, nil)
		if err != nil {
			return nil, err
		}
		res.SessionID = sessionID
		defer func() {
			if err := c.store.EndSession(context.WithoutCancel(ctx), sessionID); err != nil {
				c.logger.Warn("failed to end session", "session_id", sessionID, "error", err)
			}
		}()
	}

	pageURL := startURL
	pageNum := 1
	maxPages := c.pageBound()
	itemCap := c.itemCap()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status, items := c.processPage(ctx, pageURL, res.SessionID)
		switch status {
		case model.StatusSkipped:
			res.PagesSkipped++
			c.logger.Info("page already visited, stopping pagination", "url", pageURL)
			return res, nil
		case model.StatusFailed:
			res.PagesFailed++
			return res, nil
		}

		res.PagesVisited++
		if res.Strategy == "" && len(items.Items) > 0 {
			res.Strategy = items.Strategy
		}
		res.Items = append(res.Items, items.Items...)

		if itemCap > 0 && len(res.Items) >= itemCap {
			res.Items = res.Items[:itemCap]
			c.logger.Info("item cap reached", "items", itemCap)
			return res, nil
		}

		if pageNum >= maxPages {
			c.logger.Info("page bound reached", "pages", pageNum)
			return res, nil
		}

		next, ok := c.nextURL(pageURL, items.HTML)
		if !ok {
			return res, nil
		}

		c.logger.Debug("following next page", "from", pageURL, "to", next)
		pageURL = next
		pageNum++
	}
}

// pageResult carries what one page cycle produced.
type pageResult struct {
	// Items that survived the pipeline.
	Items []model.Item

	// Strategy that produced them.
	Strategy string

	// HTML of the fetched page, for next-button pagination.
	HTML string
}

// processPage runs one crawl cycle for a single URL and returns its
// terminal status plus whatever it produced. Only success, failed, and
// skipped statuses are returned.
func (c *Controller) processPage(ctx context.Context, pageURL, sessionID string) (model.Status, pageResult) {
	if c.store != nil {
		// The global check spans sessions: it is what makes interrupted
		// crawls resumable without refetching.
		visited, err := c.store.IsVisited(ctx, pageURL, "")
		if err != nil {
			c.logger.Warn("visited check failed", "url", pageURL, "error", err)
		}
		if visited {
			c.recordVisit(ctx, pageURL, sessionID, model.StatusSkipped)
			return model.StatusSkipped, pageResult{}
		}
	}

	resp, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		c.logger.Warn("fetch failed", "url", pageURL, "error", err)
		c.recordVisit(ctx, pageURL, sessionID, model.StatusFailed)
		return model.StatusFailed, pageResult{}
	}

	extraction := c.engine.Extract(resp.HTML, c.site)

	kept := make([]model.Item, 0, len(extraction.Items))
	for _, item := range extraction.Items {
		processed, ok := c.chain.Process(item)
		if !ok {
			continue
		}
		// Provenance fields go on after the pipeline: every item on a page
		// carries the same URL, so stamping it earlier would collapse
		// link-less items into one dedup fingerprint.
		annotated := processed.Clone()
		annotated[model.FieldURL] = pageURL
		annotated[model.FieldStatus] = model.StatusSuccess.String()
		kept = append(kept, annotated)
		if c.store != nil && sessionID != "" {
			if err := c.store.SaveItem(ctx, pageURL, annotated, sessionID); err != nil {
				c.logger.Warn("failed to save item", "url", pageURL, "error", err)
			}
		}
	}

	c.recordVisit(ctx, pageURL, sessionID, model.StatusSuccess)
	c.logger.Info("page processed",
		"url", pageURL,
		"strategy", extraction.Strategy,
		"extracted", len(extraction.Items),
		"kept", len(kept),
	)

	return model.StatusSuccess, pageResult{
		Items:    kept,
		Strategy: extraction.Strategy,
		HTML:     resp.HTML,
	}
}

// recordVisit marks a URL in the store, logging rather than failing when
// the write itself errors.
func (c *Controller) recordVisit(ctx context.Context, pageURL, sessionID string, status model.Status) {
	if c.store == nil || sessionID == "" {
		return
	}
	if err := c.store.MarkVisited(ctx, pageURL, sessionID, status); err != nil {
		c.logger.Warn("failed to record visit", "url", pageURL, "error", err)
	}
}

// pageBound resolves the effective pagination limit: site config wins
// over the controller default.
func (c *Controller) pageBound() int {
	if c.site != nil && c.site.Pagination != nil && c.site.Pagination.MaxPages > 0 {
		return c.site.Pagination.MaxPages
	}
	return c.maxPages
}

// itemCap resolves the effective item limit; 0 means unlimited.
func (c *Controller) itemCap() int {
	if c.site != nil && c.site.MaxItems > 0 {
		return c.site.MaxItems
	}
	return c.maxItems
}

// nextURL decides the next page from the current URL and the HTML already
// fetched for it. Without a pagination config the crawl is single-page.
func (c *Controller) nextURL(currentURL, htmlText string) (string, bool) {
	if c.site == nil || c.site.Pagination == nil {
		return "", false
	}

	p := c.site.Pagination
	switch p.Type {
	case config.PaginationURLPattern:
		return nextFromPattern(currentURL, p.Pattern)
	case config.PaginationNextButton, "":
		return nextFromHTML(htmlText, currentURL, p.Selector)
	default:
		c.logger.Warn("unknown pagination type", "type", string(p.Type))
		return "", false
	}
}
