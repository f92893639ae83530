// Package log provides slog loggers that sanitize credentials before
// they reach the output. Scrapers routinely log request headers and
// proxy URLs; this keeps cookies, tokens, and proxy passwords out of
// log files.
package log
