// Package export writes scraped items to output files in JSON, CSV, and
// Markdown formats. Writers stream to an io.Writer; the Manager handles
// format registration and file placement.
package export
