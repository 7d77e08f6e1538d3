package tagfilter

import (
	"strings"
	"testing"

	"github.com/hazyhaar/hameln/dom"
)

func names(tags []RowTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}

func TestDetectLayout(t *testing.T) {
	cfg := DefaultConfig()
	if got := DetectLayout(parseDoc(t, desktopPage), cfg).Name(); got != "standard" {
		t.Errorf("desktop page: got %s", got)
	}
	if got := DetectLayout(parseDoc(t, mobilePage), cfg).Name(); got != "compact" {
		t.Errorf("mobile page: got %s", got)
	}

	alternate := strings.Replace(desktopPage, "<head>",
		`<head><link rel="alternate" media="only screen and (max-width: 640px)" href="https://syosetu.org/mobile/?mode=rank">`, 1)
	if got := DetectLayout(parseDoc(t, alternate), cfg).Name(); got != "standard" {
		t.Errorf("desktop page with alternate mobile link: got %s", got)
	}

	upper := strings.Replace(mobilePage, `rel="stylesheet"`, `rel="preload StyleSheet"`, 1)
	if got := DetectLayout(parseDoc(t, upper), cfg).Name(); got != "compact" {
		t.Errorf("rel token match should be case-insensitive: got %s", got)
	}
}

func TestStandardLayout_Extract(t *testing.T) {
	doc := parseDoc(t, desktopPage)
	l := DetectLayout(doc, DefaultConfig())

	r1 := dom.Query(doc, "#r1")
	tags := l.Extract(l.Container(r1))
	if got := names(tags); !equalStrings(got, []string{"R-15", "異世界", "ラブコメ"}) {
		t.Fatalf("r1 tags: %v", got)
	}
	if !tags[0].Highlighted || tags[0].Color != "#ff0000" {
		t.Errorf("R-15 should be highlighted with the default color, got %+v", tags[0])
	}
	if tags[1].Highlighted || tags[1].Href != "/?word=isekai" {
		t.Errorf("unexpected 異世界 tag %+v", tags[1])
	}

	r2 := dom.Query(doc, "#r2")
	tags = l.Extract(l.Container(r2))
	if tags[0].Name != "残酷な描写" || tags[0].Color != "#cc0000" {
		t.Errorf("inline color should win, got %+v", tags[0])
	}
}

func TestStandardLayout_NoContainer(t *testing.T) {
	doc := parseDoc(t, desktopPage)
	l := DetectLayout(doc, DefaultConfig())
	if c := l.Container(dom.Query(doc, "#r3")); c != nil {
		t.Errorf("r3 has no tag container, got %s", dom.Render(c))
	}
	if tags := l.Extract(nil); len(tags) != 0 {
		t.Errorf("nil container yields no tags, got %v", tags)
	}
}

func TestCompactLayout_Extract(t *testing.T) {
	doc := parseDoc(t, mobilePage)
	l := DetectLayout(doc, DefaultConfig())

	tags := l.Extract(l.Container(dom.Query(doc, "#m1")))
	if got := names(tags); !equalStrings(got, []string{"R-15", "異世界", "ラブコメ"}) {
		t.Fatalf("m1 tags: %v", got)
	}
	if !tags[0].Highlighted {
		t.Error("R-15 should be highlighted")
	}
	if tags[1].Highlighted || tags[2].Highlighted {
		t.Error("prose tags should not be highlighted")
	}

	tags = l.Extract(l.Container(dom.Query(doc, "#m2")))
	if got := names(tags); !equalStrings(got, []string{"異世界", "悲劇"}) {
		t.Errorf("m2 tags: %v", got)
	}

	if c := l.Container(dom.Query(doc, "#m3")); c != nil {
		t.Error("a paragraph without a tag label is not a container")
	}
}

func TestCompactLayout_SkipsAuthorParagraph(t *testing.T) {
	doc := parseDoc(t, mobilePage)
	l := DetectLayout(doc, DefaultConfig())
	c := l.Container(dom.Query(doc, "#m1"))
	if c == nil {
		t.Fatal("expected a container")
	}
	if text := dom.TextContent(c, nil); text == "作者：someone" {
		t.Error("picked the author paragraph")
	}
}

func TestRebuild_RoundTrip(t *testing.T) {
	for _, page := range []string{desktopPage, mobilePage} {
		doc := parseDoc(t, page)
		l := DetectLayout(doc, DefaultConfig())
		for _, row := range dom.QueryAll(doc, l.RowSelector()) {
			c := l.Container(row)
			if c == nil {
				continue
			}
			before := l.Extract(c)
			l.Rebuild(c, before, addControl)

			c = l.Container(row)
			if c == nil {
				t.Fatalf("%s: container lost after rebuild", l.Name())
			}
			after := l.Extract(c)
			if !equalStrings(names(before), names(after)) {
				t.Errorf("%s: tags changed: %v -> %v", l.Name(), names(before), names(after))
			}
			for i := range after {
				if after[i].Highlighted != before[i].Highlighted {
					t.Errorf("%s: highlight of %s changed", l.Name(), after[i].Name)
				}
			}
		}
	}
}

func TestRebuild_HighlightedFirst(t *testing.T) {
	doc := parseDoc(t, `<div class="section3"><div class="all_keyword">
<a>異世界</a><span class="alert_color"><a>R-15</a></span><a>悲劇</a></div></div>`)
	l := DetectLayout(doc, DefaultConfig())
	c := l.Container(dom.Query(doc, ".section3"))
	l.Rebuild(c, l.Extract(c), addControl)

	if got := names(l.Extract(c)); !equalStrings(got, []string{"R-15", "異世界", "悲劇"}) {
		t.Errorf("highlighted group should come first, got %v", got)
	}
	if dom.Query(c, "."+classAlertGroup) == nil || dom.Query(c, "."+classTagGroup) == nil {
		t.Error("expected both tag groups")
	}
}
