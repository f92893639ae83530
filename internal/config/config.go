package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the behavior of a polite,
// general-purpose scraper: conservative delays, bounded pagination, and a
// small concurrency window for batch work.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "webscrape"

	// DefaultTimeout is the per-fetch timeout. 30 seconds covers slow
	// origins without letting a single page stall a whole crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages bounds how many pages a single pagination chain may
	// follow. This prevents runaway crawling on infinitely-generating
	// "next" links. Users can override via --max-pages.
	DefaultMaxPages = 50

	// DefaultConcurrency is the number of concurrent fetch+extract cycles
	// for batch (multi-URL) scraping. Pagination chains are always
	// sequential because page N+1's URL depends on page N.
	DefaultConcurrency = 5

	// DefaultDelayMin and DefaultDelayMax bound the randomized politeness
	// delay applied before each outbound request. A randomized delay is
	// less detectable than a fixed one and spreads load on the origin.
	DefaultDelayMin = 1 * time.Second
	DefaultDelayMax = 3 * time.Second

	// DefaultRetries is the number of fetch retries on network errors and
	// 5xx responses. Backoff between attempts is exponential.
	DefaultRetries = 3

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for HTML while preventing memory exhaustion from
	// unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// Config holds runtime options for a scrape invocation.
// It is populated from CLI flags and passed via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// ConfigFilePath is the path to the site-config YAML file. If empty,
	// the tool searches the current directory and the home directory.
	ConfigFilePath string

	// Sites holds per-site extraction configurations loaded from the
	// config file. Nil when no config file was found.
	Sites *File

	// StateDir is the directory holding the SQLite state database.
	StateDir string

	// NoState disables the visit/session state store entirely.
	NoState bool

	// Timeout is the per-fetch timeout.
	Timeout time.Duration

	// MaxPages bounds pagination chains; 0 means DefaultMaxPages.
	MaxPages int

	// Concurrency is the batch scraping parallelism.
	Concurrency int

	// DelayMin and DelayMax bound the randomized pre-request delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// Retries is the per-fetch retry budget.
	Retries int

	// Proxy is an optional outbound proxy URL.
	Proxy string

	// Formats lists requested export formats (json, csv, markdown).
	Formats []string

	// OutputDir is where export files are written.
	OutputDir string

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		StateDir:    DefaultStateDir(),
		Timeout:     DefaultTimeout,
		MaxPages:    DefaultMaxPages,
		Concurrency: DefaultConcurrency,
		DelayMin:    DefaultDelayMin,
		DelayMax:    DefaultDelayMax,
		Retries:     DefaultRetries,
		OutputDir:   "output",
	}
}

// DefaultStateDir returns the XDG data directory for the state database.
func DefaultStateDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration for invalid values.
// It returns a sentinel error from errors.go so callers can use errors.Is.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return ErrInvalidDelayRange
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	return nil
}
