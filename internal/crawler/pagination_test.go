package crawler

import "testing"

func TestNextFromPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		pattern string
		want    string
		ok      bool
	}{
		{
			name:    "query parameter",
			url:     "https://example.com/list?page=3&sort=asc",
			pattern: `page=(\d+)`,
			want:    "https://example.com/list?page=4&sort=asc",
			ok:      true,
		},
		{
			name:    "path segment",
			url:     "https://example.com/catalogue/page-9.html",
			pattern: `page-(\d+)`,
			want:    "https://example.com/catalogue/page-10.html",
			ok:      true,
		},
		{
			name:    "only the captured group changes",
			url:     "https://example.com/7/items?page=7",
			pattern: `page=(\d+)`,
			want:    "https://example.com/7/items?page=8",
			ok:      true,
		},
		{
			name:    "pattern does not match",
			url:     "https://example.com/list",
			pattern: `page=(\d+)`,
			ok:      false,
		},
		{
			name:    "empty pattern",
			url:     "https://example.com/list?page=1",
			pattern: "",
			ok:      false,
		},
		{
			name:    "invalid regex",
			url:     "https://example.com/list?page=1",
			pattern: `page=(\d`,
			ok:      false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := nextFromPattern(tt.url, tt.pattern)
			if ok != tt.ok {
				t.Fatalf("nextFromPattern() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("nextFromPattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextFromPatternSequence(t *testing.T) {
	t.Parallel()

	// Repeated application walks page=3 -> 4 -> 5.
	url := "https://example.com/list?page=3"
	for _, want := range []string{
		"https://example.com/list?page=4",
		"https://example.com/list?page=5",
	} {
		next, ok := nextFromPattern(url, `page=(\d+)`)
		if !ok {
			t.Fatalf("nextFromPattern(%q) not ok", url)
		}
		if next != want {
			t.Fatalf("nextFromPattern(%q) = %q, want %q", url, next, want)
		}
		url = next
	}
}

func TestNextFromHTML(t *testing.T) {
	t.Parallel()

	base := "https://example.com/catalogue/page-1.html"

	tests := []struct {
		name     string
		html     string
		selector string
		want     string
		ok       bool
	}{
		{
			name:     "configured selector",
			html:     `<ul><li class="next"><a href="page-2.html">next</a></li></ul>`,
			selector: "li.next a",
			want:     "https://example.com/catalogue/page-2.html",
			ok:       true,
		},
		{
			name:     "selector on wrapper element descends to anchor",
			html:     `<div class="pager-next"><a href="/page/2">onwards</a></div>`,
			selector: "div.pager-next",
			want:     "https://example.com/page/2",
			ok:       true,
		},
		{
			name: "vocabulary scan finds next",
			html: `<a href="/about">About</a><a href="?page=2">Next</a>`,
			want: "https://example.com/catalogue/page-1.html?page=2",
			ok:   true,
		},
		{
			name: "next arrow symbol",
			html: `<a href="/p/2">»</a>`,
			want: "https://example.com/p/2",
			ok:   true,
		},
		{
			name: "glued punctuation",
			html: `<a href="/p/2">Next›</a>`,
			want: "https://example.com/p/2",
			ok:   true,
		},
		{
			name: "previous-direction words vetoed",
			html: `<a href="/p/0">Back to previous</a><a href="/contact">Contact</a>`,
			ok:   false,
		},
		{
			name: "prev word vetoes even with next word present",
			html: `<a href="/p/0">newer and next</a>`,
			ok:   false,
		},
		{
			name: "anchor without href ignored",
			html: `<a>Next</a>`,
			ok:   false,
		},
		{
			name: "javascript href rejected",
			html: `<a href="javascript:void(0)">Next</a>`,
			ok:   false,
		},
		{
			name: "self-link rejected",
			html: `<a href="page-1.html">Next</a>`,
			ok:   false,
		},
		{
			name: "no pagination controls",
			html: `<p>The end.</p>`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := nextFromHTML(tt.html, base, tt.selector)
			if ok != tt.ok {
				t.Fatalf("nextFromHTML() ok = %v (got %q), want %v", ok, got, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("nextFromHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNextText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"Next", true},
		{"  more  ", true},
		{"Older posts", true},
		{">", true},
		{"»", true},
		{"Next page", true},
		{"Next›", true},
		{"next>", true},
		{"more»", true},
		{"«back", false},
		{"Previous", false},
		{"back", false},
		{"< newer", false},
		{"", false},
		{"Contact", false},
	}

	for _, tt := range tests {
		tt := tt
		if got := isNextText(tt.text); got != tt.want {
			t.Errorf("isNextText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
