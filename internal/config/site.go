package config

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// PaginationType selects how the crawler resolves the next page URL.
type PaginationType string

// Supported pagination types.
const (
	// PaginationNextButton follows a "next" link discovered in the
	// current page's DOM.
	PaginationNextButton PaginationType = "next_button"

	// PaginationURLPattern increments a page number embedded in the URL.
	PaginationURLPattern PaginationType = "url_pattern"
)

// PaginationConfig drives the crawler's next-URL decision.
type PaginationConfig struct {
	// Type is the pagination mechanism. Defaults to next_button when a
	// selector is set and the type is omitted.
	Type PaginationType `yaml:"type,omitempty"`

	// Selector is a CSS selector for the next-page control
	// (next_button only). When it matches nothing, the crawler falls back
	// to scanning anchors for "next"-like text.
	Selector string `yaml:"selector,omitempty"`

	// Pattern is a regex with one capture group locating the page number
	// inside the current URL (url_pattern only), e.g. `page=(\d+)`.
	Pattern string `yaml:"pattern,omitempty"`

	// MaxPages bounds the pagination chain; 0 means the global default.
	MaxPages int `yaml:"max_pages,omitempty"`
}

// SiteConfig holds the extraction configuration for one site or one named
// scrape target. It is read-only during a run.
type SiteConfig struct {
	// Domain restricts this config to URLs whose host contains it.
	Domain string `yaml:"domain,omitempty"`

	// Container is a CSS selector matching one repeating record in a
	// list-like page. When set, each field selector is applied per
	// container element, yielding one item per container.
	Container string `yaml:"container,omitempty"`

	// Selectors maps field names to CSS selectors.
	Selectors map[string]string `yaml:"selectors,omitempty"`

	// Fields is an accepted alias for Selectors.
	Fields map[string]string `yaml:"fields,omitempty"`

	// Pagination configures how to advance to the next page.
	Pagination *PaginationConfig `yaml:"pagination,omitempty"`

	// MaxItems truncates the accumulated results; 0 means unlimited.
	MaxItems int `yaml:"max_items,omitempty"`

	// Schema is an optional JSON schema items must satisfy. It is stored
	// as raw YAML-decoded structure and compiled by the pipeline.
	Schema map[string]any `yaml:"schema,omitempty"`
}

// FieldSelectors returns the selector map, honoring the "fields" alias.
// Selectors wins when both keys are present.
func (sc *SiteConfig) FieldSelectors() map[string]string {
	if len(sc.Selectors) > 0 {
		return sc.Selectors
	}
	return sc.Fields
}

// SchemaJSON returns the configured JSON schema serialized as JSON bytes,
// or nil when no schema is configured.
func (sc *SiteConfig) SchemaJSON() ([]byte, error) {
	if len(sc.Schema) == 0 {
		return nil, nil
	}
	return json.Marshal(sc.Schema)
}

// File represents the structure of the site-config YAML file: a mapping
// from a site name to its configuration.
type File struct {
	// Sites maps config names to site configurations. Names are matched
	// against URL domains during resolution, so "books_toscrape" matches
	// books.toscrape.com.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// minSubstringKeyLen is the minimum config-name length for the loose
// substring match. Shorter names would produce accidental matches
// (e.g. "co" inside "costco.com").
const minSubstringKeyLen = 4

// ForURL resolves the configuration for a URL by matching its domain.
// Resolution order, first match wins:
//  1. explicit Domain field contained in the URL's host
//  2. config name with underscores normalized to dots contained in the host
//  3. config name as a plain substring of the host (names longer than 3)
//
// Keys are scanned in sorted order within each pass so resolution is
// deterministic. Returns nil when nothing matches, which routes the URL
// to heuristic extraction.
func (f *File) ForURL(rawURL string) *SiteConfig {
	if f == nil || len(f.Sites) == 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	domain := strings.ToLower(u.Hostname())
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return nil
	}

	names := make([]string, 0, len(f.Sites))
	for name := range f.Sites {
		names = append(names, name)
	}
	sort.Strings(names)

	// Pass 1: explicit domain field.
	for _, name := range names {
		sc := f.Sites[name]
		if sc.Domain != "" && strings.Contains(domain, strings.ToLower(sc.Domain)) {
			return &sc
		}
	}

	// Pass 2: normalized key as domain substring.
	for _, name := range names {
		normalized := strings.ToLower(strings.ReplaceAll(name, "_", "."))
		if strings.Contains(domain, normalized) {
			sc := f.Sites[name]
			return &sc
		}
	}

	// Pass 3: loose substring match for sufficiently long keys.
	for _, name := range names {
		if len(name) >= minSubstringKeyLen && strings.Contains(domain, strings.ToLower(name)) {
			sc := f.Sites[name]
			return &sc
		}
	}

	return nil
}

// ByName returns the configuration registered under the given name.
func (f *File) ByName(name string) *SiteConfig {
	if f == nil {
		return nil
	}
	if sc, ok := f.Sites[name]; ok {
		return &sc
	}
	return nil
}
