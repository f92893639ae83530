package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nextWords are anchor texts that indicate a forward pagination control.
var nextWords = map[string]bool{
	"next":  true,
	"more":  true,
	"older": true,
	">":     true,
	"»":     true,
}

// prevWords disqualify an anchor even when it also contains a next word
// ("back to next chapter" style false positives).
var prevWords = map[string]bool{
	"prev":     true,
	"previous": true,
	"back":     true,
	"newer":    true,
	"<":        true,
	"«":        true,
}

// nextFromHTML finds the next-page URL in the current page's DOM.
// A configured selector is tried first; otherwise anchors are scanned for
// next-like text. Only anchors carrying a usable href qualify, and the
// result is resolved against the current URL.
func nextFromHTML(htmlText, currentURL, selector string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return "", false
	}

	if selector != "" {
		if href, ok := hrefOf(doc.Find(selector).First()); ok {
			return resolveNext(currentURL, href)
		}
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isNextText(s.Text()) {
			return true
		}
		href, ok := hrefOf(s)
		if !ok {
			return true
		}
		found = href
		return false
	})
	if found == "" {
		return "", false
	}
	return resolveNext(currentURL, found)
}

// hrefOf extracts a usable href from a selection, descending into a child
// anchor when the selected element is a wrapper around one.
func hrefOf(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	href, ok := s.Attr("href")
	if !ok {
		href, ok = s.Find("a[href]").First().Attr("href")
	}
	href = strings.TrimSpace(href)
	if !ok || href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	return href, true
}

// isNextText reports whether anchor text names a forward control.
// Matching is containment-based so glued punctuation ("Next›", "next>")
// still qualifies; any previous-direction token anywhere in the text
// vetoes the anchor.
func isNextText(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for word := range prevWords {
		if strings.Contains(text, word) {
			return false
		}
	}
	for word := range nextWords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// resolveNext resolves href against the current URL and rejects
// self-links, which would loop the pagination chain forever.
func resolveNext(currentURL, href string) (string, bool) {
	base, err := url.Parse(currentURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	next := base.ResolveReference(ref)
	next.Fragment = ""
	resolved := next.String()
	if resolved == currentURL {
		return "", false
	}
	return resolved, true
}

// nextFromPattern advances a page number embedded in the URL. The pattern
// must contain one capture group over the number; only the captured span
// is rewritten, so query parameters and path segments around it survive
// untouched. Returns false when the pattern doesn't match the current URL,
// which ends the chain.
func nextFromPattern(currentURL, pattern string) (string, bool) {
	if pattern == "" {
		return "", false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}

	m := re.FindStringSubmatchIndex(currentURL)
	if m == nil || len(m) < 4 || m[2] < 0 {
		return "", false
	}

	n, err := strconv.Atoi(currentURL[m[2]:m[3]])
	if err != nil {
		return "", false
	}

	return currentURL[:m[2]] + strconv.Itoa(n+1) + currentURL[m[3]:], true
}
