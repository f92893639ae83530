package pipeline

import (
	"log/slog"
	"sync"

	"github.com/0khacha/web-scraper/internal/model"
)

// Stage is one transform/filter applied to every item.
//
// Design decision: We use a closed set of stage implementations behind one
// interface rather than ad hoc subclassing. New behavior is added by
// extending the variant set, which keeps the chain's semantics auditable.
type Stage interface {
	// Apply processes the item. It returns the (possibly replaced) item
	// and false when the item should be dropped. Stages must not mutate
	// the input item; they clone before changing fields.
	Apply(item model.Item) (model.Item, bool)

	// Name returns the stage's name for logging and drop accounting.
	Name() string
}

// Chain runs items through an ordered list of stages.
// A Chain is safe for concurrent use: batch scraping feeds it from
// multiple goroutines and the drop counters and the Deduplicate stage
// guard their state with mutexes.
type Chain struct {
	// stages in application order.
	stages []Stage

	// logger for structured logging.
	logger *slog.Logger

	// drops counts dropped items per stage name.
	drops map[string]int
	mu    sync.Mutex
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets a custom logger for the chain.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithStages replaces the default stage chain entirely.
// Stages run in the order given.
func WithStages(stages ...Stage) Option {
	return func(c *Chain) {
		c.stages = stages
	}
}

// NewChain creates a pipeline with the default stage order:
// Normalize → Validate → Deduplicate → SchemaValidate.
// schemaJSON may be nil, in which case the schema stage passes everything.
func NewChain(schemaJSON []byte, opts ...Option) (*Chain, error) {
	schemaStage, err := NewSchemaValidate(schemaJSON)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		stages: []Stage{
			NewNormalize(),
			NewValidate(),
			NewDeduplicate(),
			schemaStage,
		},
		drops: make(map[string]int),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Process runs the item through all stages in order.
// It returns the processed item and false when any stage dropped it.
// Dropping is a filtering outcome, not an error: it is counted and logged
// at debug level only.
func (c *Chain) Process(item model.Item) (model.Item, bool) {
	current := item
	for _, stage := range c.stages {
		next, ok := stage.Apply(current)
		if !ok {
			c.recordDrop(stage.Name())
			c.logger.Debug("item dropped by pipeline stage",
				"stage", stage.Name(),
				"title", current.Title(),
			)
			return nil, false
		}
		current = next
	}
	return current, true
}

// DropCounts returns a copy of the per-stage drop counters.
func (c *Chain) DropCounts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.drops))
	for k, v := range c.drops {
		out[k] = v
	}
	return out
}

// TotalDropped returns the number of items dropped by any stage.
func (c *Chain) TotalDropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, v := range c.drops {
		total += v
	}
	return total
}

func (c *Chain) recordDrop(stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drops[stage]++
}

// StageNames returns the names of all stages in execution order.
func (c *Chain) StageNames() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}
