// Package pipeline post-processes extracted items through an ordered
// chain of stages: whitespace normalization, required-field validation,
// run-scoped deduplication, and optional JSON-schema validation. A stage
// dropping an item short-circuits the remaining stages for that item.
package pipeline
