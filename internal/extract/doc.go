// Package extract turns raw HTML into structured items without requiring
// hand-written selectors for most sites. Three strategies are tried in
// strict priority order: configured CSS selectors, automatic detection of
// repeating list structures, and a readability-style content fallback.
// The first strategy yielding non-trivial output wins.
package extract
