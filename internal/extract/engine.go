package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/0khacha/web-scraper/internal/config"
	"github.com/0khacha/web-scraper/internal/model"
)

// Strategy names recorded on extraction results.
const (
	StrategyConfigured    = "configured"
	StrategyAutoList      = "auto_list"
	StrategySmartFallback = "smart_fallback"
)

// Result holds the outcome of one extraction.
type Result struct {
	// Items are the extracted records. A single-item extraction (no
	// container, or the smart fallback) yields exactly one entry with
	// List false.
	Items []model.Item

	// List reports whether the result represents a repeating list rather
	// than a single whole-page record.
	List bool

	// Strategy names the strategy that produced the result.
	Strategy string
}

// Empty reports whether the extraction produced nothing usable.
func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// Engine extracts structured items from HTML. It is a pure function over
// its inputs: no I/O, no state shared between calls.
//
// Design decision: The strategy ordering encodes a trust hierarchy —
// explicit configuration beats inference beats generic fallback. A
// configured-but-wrong selector that yields nothing falls through to the
// heuristics instead of silently returning empty data.
type Engine struct {
	// thresholds tunes the automatic list detection heuristics.
	thresholds Thresholds

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides the auto-list detection thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an extraction engine with default thresholds.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the strategy chain against the HTML. cfg may be nil, which
// skips the configured strategy entirely.
//
// Non-trivial output means: for a list result, at least one item; for a
// single-item result, at least one non-empty field value.
func (e *Engine) Extract(htmlText string, cfg *config.SiteConfig) Result {
	if strings.TrimSpace(htmlText) == "" {
		return Result{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		// The x/net/html parser is lenient; a hard failure means the
		// input is not HTML at all.
		e.logger.Warn("failed to parse HTML", "error", err)
		return Result{}
	}

	// Strategy 1: configured selectors.
	if cfg != nil {
		if selectors := cfg.FieldSelectors(); len(selectors) > 0 {
			items, list := e.extractConfigured(doc, selectors, cfg.Container)
			if nonTrivial(items, list) {
				e.logger.Debug("extracted with configured selectors", "items", len(items))
				return Result{Items: items, List: list, Strategy: StrategyConfigured}
			}
			e.logger.Debug("configured selectors yielded no data, trying heuristics")
		}
	}

	// Strategy 2: automatic list detection.
	if items := e.detectList(doc); len(items) > 0 {
		e.logger.Debug("detected list automatically", "items", len(items))
		return Result{Items: items, List: true, Strategy: StrategyAutoList}
	}

	// Strategy 3: smart content fallback.
	item := e.extractSmartContent(htmlText, doc)
	return Result{Items: []model.Item{item}, List: false, Strategy: StrategySmartFallback}
}

// nonTrivial implements the gate between strategies: a list needs at least
// one item, a single item needs at least one non-empty field.
func nonTrivial(items []model.Item, list bool) bool {
	if list {
		return len(items) > 0
	}
	return len(items) == 1 && items[0].HasAnyValue()
}
