// Package crawler orchestrates fetching, extraction, pipeline processing,
// and state recording. The Controller walks a pagination chain from a
// start URL; RunBatch fans a URL list out over a bounded worker pool.
package crawler
