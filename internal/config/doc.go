// Package config holds scraper configuration: runtime options populated
// from CLI flags, per-site extraction configs loaded from a YAML file, and
// the rules that resolve which extraction config applies to a given URL.
package config
