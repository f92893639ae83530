package main

import (
	"testing"

	"github.com/0khacha/web-scraper/internal/config"
)

func TestParseFieldPairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pairs",
			pairs: []string{"title=h2 a", "price=.price"},
			want:  map[string]string{"title": "h2 a", "price": ".price"},
		},
		{
			name:  "selector containing equals",
			pairs: []string{`link=a[rel=next]`},
			want:  map[string]string{"link": "a[rel=next]"},
		},
		{
			name:  "whitespace trimmed",
			pairs: []string{"  title = h1 "},
			want:  map[string]string{"title": "h1"},
		},
		{
			name:    "missing separator",
			pairs:   []string{"title"},
			wantErr: true,
		},
		{
			name:    "empty name",
			pairs:   []string{"=h1"},
			wantErr: true,
		},
		{
			name:    "empty selector",
			pairs:   []string{"title="},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseFieldPairs(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFieldPairs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestResolveSiteConfigInlineFlags(t *testing.T) {
	t.Parallel()

	cmd := NewScrapeCmd()
	if err := cmd.ParseFlags([]string{
		"--container", "div.product",
		"--fields", "title=h2,price=.price",
		"--url-pattern", `page=(\d+)`,
		"--max-items", "10",
	}); err != nil {
		t.Fatal(err)
	}

	site, err := resolveSiteConfig(cmd, config.NewConfig(), "https://example.com/list?page=1")
	if err != nil {
		t.Fatalf("resolveSiteConfig() error = %v", err)
	}
	if site == nil {
		t.Fatal("resolveSiteConfig() = nil with inline flags set")
	}
	if site.Container != "div.product" {
		t.Errorf("Container = %q", site.Container)
	}
	if site.Selectors["price"] != ".price" {
		t.Errorf("Selectors = %v", site.Selectors)
	}
	if site.Pagination == nil || site.Pagination.Type != config.PaginationURLPattern {
		t.Errorf("Pagination = %+v", site.Pagination)
	}
	if site.MaxItems != 10 {
		t.Errorf("MaxItems = %d", site.MaxItems)
	}
}

func TestResolveSiteConfigUnknownName(t *testing.T) {
	t.Parallel()

	cmd := NewScrapeCmd()
	if err := cmd.ParseFlags([]string{"--site", "missing"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig()
	cfg.Sites = &config.File{Sites: map[string]config.SiteConfig{}}

	if _, err := resolveSiteConfig(cmd, cfg, "https://example.com"); err == nil {
		t.Error("resolveSiteConfig() accepted an unknown --site name")
	}
}

func TestResolveSiteConfigDomainMatch(t *testing.T) {
	t.Parallel()

	cmd := NewScrapeCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig()
	cfg.Sites = &config.File{Sites: map[string]config.SiteConfig{
		"books_toscrape": {Container: "article.product_pod"},
	}}

	site, err := resolveSiteConfig(cmd, cfg, "https://books.toscrape.com/")
	if err != nil {
		t.Fatal(err)
	}
	if site == nil || site.Container != "article.product_pod" {
		t.Errorf("resolveSiteConfig() = %+v, want the domain-matched config", site)
	}
}
