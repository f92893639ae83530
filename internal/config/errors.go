package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while keeping the messages
// human-readable.
var (
	// ErrConfigNotFound is returned when the site-config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNoStartURL is returned when no URL was given to scrape.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when max pages is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidConcurrency is returned when the batch concurrency is not
	// positive. Zero concurrency would mean no work gets done.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidDelayRange is returned when the delay range is negative or
	// inverted (max below min).
	ErrInvalidDelayRange = errors.New("invalid delay range: min must be non-negative and max >= min")

	// ErrInvalidRetries is returned when the retry budget is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")
)
