package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/0khacha/web-scraper/internal/model"
)

// extractConfigured applies explicit CSS selectors. With a container
// selector, each field selector is evaluated independently inside every
// container element, producing one item per container with non-empty data.
// Without a container, the field selectors run once over the whole
// document and produce a single item.
func (e *Engine) extractConfigured(doc *goquery.Document, selectors map[string]string, container string) ([]model.Item, bool) {
	if container != "" {
		var items []model.Item
		doc.Find(container).Each(func(_ int, s *goquery.Selection) {
			item := extractFields(s, selectors)
			if item.HasAnyValue() {
				items = append(items, item)
			}
		})
		return items, true
	}

	item := extractFields(doc.Selection, selectors)
	return []model.Item{item}, false
}

// extractFields evaluates each named selector against the element and
// applies per-field-name heuristics to choose between text and attributes.
func extractFields(root *goquery.Selection, selectors map[string]string) model.Item {
	item := model.NewItem()
	for field, selector := range selectors {
		target := root.Find(selector).First()
		if target.Length() == 0 {
			continue
		}

		switch normalizeFieldName(field) {
		case fieldKindLink:
			item[field] = attrOrText(target, "href")
		case fieldKindImage:
			if src, ok := target.Attr("src"); ok && src != "" {
				item[field] = src
			} else {
				item[field] = attrOrText(target, "data-src")
			}
		default:
			item[field] = strings.TrimSpace(target.Text())
		}
	}
	return item
}

// fieldKind classifies field names that get attribute-preferring treatment.
type fieldKind int

const (
	fieldKindText fieldKind = iota
	fieldKindLink
	fieldKindImage
)

// normalizeFieldName maps a field name to its extraction heuristic:
// link-like names prefer the link target attribute, image-like names
// prefer an image-source attribute, everything else takes element text.
func normalizeFieldName(field string) fieldKind {
	switch strings.ToLower(field) {
	case "link", "url", "href":
		return fieldKindLink
	case "image", "img", "src", "thumbnail":
		return fieldKindImage
	}
	return fieldKindText
}

// attrOrText returns the named attribute when present and non-empty,
// falling back to the element's trimmed text.
func attrOrText(s *goquery.Selection, attr string) string {
	if v, ok := s.Attr(attr); ok && v != "" {
		return v
	}
	return strings.TrimSpace(s.Text())
}
