package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestDetectListIgnoresSparseGroups(t *testing.T) {
	t.Parallel()

	// The nav items repeat more often than the products but carry only a
	// link each, below MinFieldCount, so sampling must reject them.
	html := `<html><body>
	<ul>
		<li class="nav-item"><a href="/a">A</a></li>
		<li class="nav-item"><a href="/b">B</a></li>
		<li class="nav-item"><a href="/c">C</a></li>
		<li class="nav-item"><a href="/d">D</a></li>
		<li class="nav-item"><a href="/e">E</a></li>
		<li class="nav-item"><a href="/f">F</a></li>
	</ul>
	<div class="item"><h3>First Widget</h3><a href="/w/1">go</a><span>$10.00</span></div>
	<div class="item"><h3>Second Widget</h3><a href="/w/2">go</a><span>$20.00</span></div>
	<div class="item"><h3>Third Widget</h3><a href="/w/3">go</a><span>$30.00</span></div>
	</body></html>`

	e := NewEngine()
	items := e.detectList(mustDoc(t, html))

	if len(items) != 3 {
		t.Fatalf("detectList found %d items, want the 3 products", len(items))
	}
	if items[0]["title"] != "First Widget" {
		t.Errorf("title = %q, want heading fallback", items[0]["title"])
	}
	if items[0]["price"] != "$10.00" {
		t.Errorf("price = %q", items[0]["price"])
	}
}

func TestDetectListNoRepetition(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="hero"><h1>Welcome</h1></div>
		<div class="footer"><p>Copyright</p></div>
	</body></html>`

	e := NewEngine()
	if items := e.detectList(mustDoc(t, html)); items != nil {
		t.Errorf("detectList = %v, want nil for a page without lists", items)
	}
}

func TestClassSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "classes sorted",
			html: `<div class="zeta alpha"></div>`,
			want: "alpha.zeta",
		},
		{
			name: "no class attribute",
			html: `<div></div>`,
			want: "",
		},
		{
			name: "whitespace-only class",
			html: `<div class="  "></div>`,
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := mustDoc(t, tt.html)
			got := classSignature(doc.Find("div").First())
			if got != tt.want {
				t.Errorf("classSignature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeuristicItemRejectsTinyImageSrc(t *testing.T) {
	t.Parallel()

	html := `<div class="c"><img src="/i.png"><a href="/page">Readable Title</a></div>`
	e := NewEngine()
	item := e.heuristicItem(mustDoc(t, html).Find("div").First())

	if _, ok := item["image"]; ok {
		t.Errorf("image = %q, want icon-length src rejected", item["image"])
	}
	if item["title"] != "Readable Title" {
		t.Errorf("title = %q", item["title"])
	}
	if item["link"] != "/page" {
		t.Errorf("link = %q", item["link"])
	}
}

func TestHeuristicItemLazyImage(t *testing.T) {
	t.Parallel()

	html := `<div class="c"><img data-src="/images/lazy-loaded-photo.jpg"><h2>Lazy Card</h2></div>`
	e := NewEngine()
	item := e.heuristicItem(mustDoc(t, html).Find("div").First())

	if item["image"] != "/images/lazy-loaded-photo.jpg" {
		t.Errorf("image = %q, want the data-src fallback", item["image"])
	}
}
