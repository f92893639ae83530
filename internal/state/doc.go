// Package state provides SQLite-based persistence for crawl state:
// visited URLs, sessions, and an append-only log of scraped items.
// It makes crawls resumable and idempotent across process restarts.
package state
