package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/0khacha/web-scraper/internal/model"
)

// maxFallbackContentChars caps the raw-text fallback when the readability
// extraction yields nothing.
const maxFallbackContentChars = 5000

// fallbackBaseURL anchors relative URLs during readability parsing. The
// engine is a pure function over HTML and deliberately does not know the
// page's real URL; link resolution is not part of fallback content.
var fallbackBaseURL = &url.URL{Scheme: "http", Host: "localhost"}

// extractSmartContent is the last-resort strategy: page title, meta
// description, and the primary content via a readability-style extractor,
// degrading to capped visible body text. The item is tagged so consumers
// can tell a generic fallback from structured data.
func (e *Engine) extractSmartContent(htmlText string, doc *goquery.Document) model.Item {
	item := model.NewItem()

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		item["title"] = title
	}

	if desc := metaDescription(doc); desc != "" {
		item["description"] = desc
	}

	content := ""
	article, err := readability.FromReader(strings.NewReader(htmlText), fallbackBaseURL)
	if err == nil {
		content = strings.TrimSpace(article.TextContent)
	} else {
		e.logger.Debug("readability extraction failed", "error", err)
	}
	if content == "" {
		content = visibleBodyText(doc)
	}
	if content != "" {
		item["content"] = content
	}

	item[model.FieldExtractionType] = StrategySmartFallback
	return item
}

// metaDescription reads the standard description meta tag, falling back
// to the OpenGraph variant.
func metaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// visibleBodyText returns the document body's text with script/style
// noise removed, capped at maxFallbackContentChars runes.
func visibleBodyText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, noscript").Remove()

	text := strings.TrimSpace(body.Text())
	runes := []rune(text)
	if len(runes) > maxFallbackContentChars {
		text = string(runes[:maxFallbackContentChars])
	}
	return text
}
