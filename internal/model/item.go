package model

import (
	"sort"
	"strings"
	"time"
)

// Reserved item field names. These are set by the crawler, not by
// extraction strategies, and are excluded from "meaningful field" checks.
const (
	FieldURL            = "url"
	FieldStatus         = "status"
	FieldError          = "error"
	FieldExtractionType = "extraction_type"
)

// Status describes the outcome of processing a single URL or item.
type Status string

// Visit and item statuses.
//
// Design decision: We use a typed string rather than an int enum because
// the value is persisted as-is in the state store and exported in item
// payloads, so the wire form and the Go form should be identical.
const (
	// StatusSuccess means the page was fetched and extracted.
	StatusSuccess Status = "success"

	// StatusFailed means the fetch or extraction failed.
	StatusFailed Status = "failed"

	// StatusSkipped means the URL was already visited and not reprocessed.
	StatusSkipped Status = "skipped"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// String returns the status as a plain string.
func (s Status) String() string {
	return string(s)
}

// Item is a single extracted record: a mapping from field name to value.
// Items are produced fresh per page and are treated as immutable once
// emitted to the pipeline; stages that change an item operate on a clone.
type Item map[string]string

// NewItem returns an empty item.
func NewItem() Item {
	return make(Item)
}

// Clone returns a shallow copy of the item.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// FieldNames returns the item's field names in sorted order.
// Sorting gives a stable order for export and fingerprinting since Go
// map iteration order is randomized.
func (it Item) FieldNames() []string {
	names := make([]string, 0, len(it))
	for k := range it {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MeaningfulFieldCount returns the number of non-empty, non-reserved
// fields. This is the field count used by the auto-list scoring.
func (it Item) MeaningfulFieldCount() int {
	count := 0
	for k, v := range it {
		switch k {
		case FieldURL, FieldStatus, FieldError, FieldExtractionType:
			continue
		}
		if strings.TrimSpace(v) != "" {
			count++
		}
	}
	return count
}

// HasAnyValue reports whether at least one field holds a non-empty value.
func (it Item) HasAnyValue() bool {
	for _, v := range it {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Title returns the item's title-equivalent field ("title", falling back
// to "name"), or the empty string when absent.
func (it Item) Title() string {
	if t := it["title"]; t != "" {
		return t
	}
	return it["name"]
}

// VisitRecord is a persisted record of one URL visit within a session.
// The primary key is a content hash of the normalized URL; uniqueness is
// scoped to (url_hash, session_id) so the same URL may be revisited in a
// different session.
type VisitRecord struct {
	// URLHash is the hex-encoded hash of the normalized URL.
	URLHash string

	// URL is the original URL as visited.
	URL string

	// SessionID is the owning session.
	SessionID string

	// Status is the visit outcome.
	Status Status

	// VisitedAt is when the visit was last recorded. Re-marking a visited
	// URL updates this timestamp rather than inserting a second record.
	VisitedAt time.Time
}

// SessionStatus describes the lifecycle state of a session.
type SessionStatus string

// Session lifecycle states. Every session eventually transitions from
// active to completed; sessions stuck in active are queryable so stale
// state can be detected and cleared.
const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is one logical crawl attempt. It scopes visited-URL uniqueness
// and recoverable item storage.
type Session struct {
	// SessionID is the unique, time-derived session identifier.
	SessionID string

	// StartURL is the URL the crawl started from.
	StartURL string

	// StartedAt is when the session was created.
	StartedAt time.Time

	// CompletedAt is when the session ended; zero while active.
	CompletedAt time.Time

	// Status is the session lifecycle state.
	Status SessionStatus

	// Metadata holds caller-supplied session annotations.
	Metadata map[string]any
}

// SavedItem is one entry in a session's append-only item log, used for
// session-scoped recovery. Records are never mutated after insert.
type SavedItem struct {
	// SessionID is the owning session.
	SessionID string

	// URL is the page the item was extracted from.
	URL string

	// Payload is the extracted item.
	Payload Item

	// ScrapedAt is when the item was stored.
	ScrapedAt time.Time
}
