// Package fetch retrieves pages over HTTP with retry, backoff, request
// pacing, and user-agent rotation. Transport failures and retryable
// status codes are retried by the client itself; callers see only the
// final outcome.
package fetch
