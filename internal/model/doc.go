// Package model defines the core data types shared across the scraper:
// extracted items, visit records, sessions, and their statuses.
package model
