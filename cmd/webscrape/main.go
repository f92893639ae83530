// Package main provides the entry point for the webscrape CLI.
//
// webscrape extracts structured data from web pages without per-site
// code. It tries configured CSS selectors first, falls back to automatic
// list detection, and finally to whole-page content extraction.
//
// Usage:
//
//	webscrape scrape <url>
//	webscrape scrape --fields "title=h2 a,price=.price" <url>
//	webscrape sessions
//
// See --help for all available options.
package main

// main is the entry point for webscrape.
func main() {
	Execute()
}
