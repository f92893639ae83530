package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/0khacha/web-scraper/internal/model"
)

// Thresholds tunes the automatic list detection heuristics. They are
// exposed as a configuration surface so behavior is reproducible and
// testable in isolation rather than buried as magic numbers.
type Thresholds struct {
	// RepeatThreshold is the minimum number of elements sharing a class
	// signature before the group counts as a list candidate. Fewer than
	// three repetitions is insufficient evidence of a list pattern.
	RepeatThreshold int

	// SampleSize is how many members of a candidate group are probed
	// before committing to a full extraction.
	SampleSize int

	// AcceptRatio is the fraction of sampled members that must yield
	// meaningful fields for the candidate to be accepted. The comparison
	// is strict (ratio > AcceptRatio).
	AcceptRatio float64

	// MinFieldCount is how many meaningful fields a sampled member needs
	// to count as valid.
	MinFieldCount int

	// RichFieldCount and RichMultiplier boost the score of groups whose
	// members average at least RichFieldCount fields.
	RichFieldCount int
	RichMultiplier float64

	// MinTitleLen filters out anchor text too short to be a title.
	MinTitleLen int

	// MinImageSrcLen filters out tiny src values that are usually
	// generic icons rather than record images.
	MinImageSrcLen int
}

// DefaultThresholds returns the standard detection thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RepeatThreshold: 3,
		SampleSize:      5,
		AcceptRatio:     0.6,
		MinFieldCount:   2,
		RichFieldCount:  3,
		RichMultiplier:  1.5,
		MinTitleLen:     3,
		MinImageSrcLen:  10,
	}
}

// candidateTags are the block-level, tabular, and list-item tags scanned
// for repeating structures.
var candidateTags = []string{"div", "article", "li", "tr"}

// priceRegex matches currency-symbol-prefixed numeric tokens with two
// decimals, e.g. "$19.99", "€1.234,56" tail, "£5.00".
var priceRegex = regexp.MustCompile(`[\$€£0-9]+[.,]\d{2}`)

// headingTags are searched, in order, for a title when the primary anchor
// carries none.
var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "strong"}

// detectList finds a repeating sibling-like structure without any
// configuration. Elements are grouped by the sorted, dot-joined signature
// of their class attribute; each group big enough to look like a list is
// sampled, heuristically extracted, and scored. The highest-scoring
// accepted group wins, with ties broken by first-encountered order.
func (e *Engine) detectList(doc *goquery.Document) []model.Item {
	t := e.thresholds

	groups := make(map[string][]*goquery.Selection)
	var order []string

	for _, tag := range candidateTags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			sig := classSignature(s)
			if sig == "" {
				return
			}
			if _, seen := groups[sig]; !seen {
				order = append(order, sig)
			}
			groups[sig] = append(groups[sig], s)
		})
	}

	var best []model.Item
	var maxScore float64

	for _, sig := range order {
		members := groups[sig]
		if len(members) < t.RepeatThreshold {
			continue
		}

		// Probe a sample before paying for a full extraction.
		sampleSize := len(members)
		if sampleSize > t.SampleSize {
			sampleSize = t.SampleSize
		}
		valid := 0
		for _, m := range members[:sampleSize] {
			if e.heuristicItem(m).MeaningfulFieldCount() >= t.MinFieldCount {
				valid++
			}
		}
		if float64(valid)/float64(sampleSize) <= t.AcceptRatio {
			continue
		}

		var extracted []model.Item
		totalFields := 0
		for _, m := range members {
			item := e.heuristicItem(m)
			if item.HasAnyValue() {
				extracted = append(extracted, item)
				totalFields += len(item)
			}
		}
		if len(extracted) == 0 {
			continue
		}

		avgFields := float64(totalFields) / float64(len(extracted))
		score := float64(len(extracted)) * avgFields
		if avgFields >= float64(t.RichFieldCount) {
			score *= t.RichMultiplier
		}

		// Strict comparison keeps the first-encountered group on ties.
		if score > maxScore {
			maxScore = score
			best = extracted
		}
	}

	return best
}

// classSignature builds a stable signature from an element's class set.
// Elements without classes return the empty signature and are ignored:
// unclassed repetition is too noisy to group on.
func classSignature(s *goquery.Selection) string {
	attr, ok := s.Attr("class")
	if !ok {
		return ""
	}
	classes := strings.Fields(attr)
	if len(classes) == 0 {
		return ""
	}
	sort.Strings(classes)
	return strings.Join(classes, ".")
}

// heuristicItem extracts common record fields (image, link, title, price)
// from a potential list member.
func (e *Engine) heuristicItem(s *goquery.Selection) model.Item {
	t := e.thresholds
	item := model.NewItem()

	// Image: prefer src, accept lazy-loading data-src, reject tiny
	// values that are usually icons.
	if img := s.Find("img").First(); img.Length() > 0 {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		if len(src) > t.MinImageSrcLen {
			item["image"] = src
		}
	}

	// Link, and often the title lives inside the main anchor.
	if a := s.Find("a").First(); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok && href != "" {
			item["link"] = href
		}
		if text := strings.TrimSpace(a.Text()); len(text) > t.MinTitleLen {
			item["title"] = text
		}
	}

	// Title fallback: headings, then strong.
	if _, ok := item["title"]; !ok {
		for _, h := range headingTags {
			if el := s.Find(h).First(); el.Length() > 0 {
				if text := strings.TrimSpace(el.Text()); text != "" {
					item["title"] = text
					break
				}
			}
		}
	}

	// Price: currency-looking token anywhere in the member's text.
	if m := priceRegex.FindString(s.Text()); m != "" {
		item["price"] = m
	}

	return item
}
