package tagfilter

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

const desktopPage = `<!DOCTYPE html>
<html><head><link rel="stylesheet" href="/css/pc.css"></head><body>
<div class="section3" id="r1">
  <h3><a href="/novel/1/">Novel One</a></h3>
  <div class="all_keyword">
    <span class="alert_color"><a href="/?mode=search&amp;word=R-15">R-15</a></span>
    <a href="/?word=isekai">異世界</a> <a href="/?word=rabukome">ラブコメ</a> <a>ラブコメ </a>
  </div>
</div>
<div class="section3" id="r2">
  <h3><a href="/novel/2/">Novel Two</a></h3>
  <div class="all_keyword">
    <a class="alert_color" style="color: #cc0000">残酷な描写</a>
    <a>異世界</a>　<a>悲劇</a>
  </div>
</div>
<div class="section3" id="r3"><h3>No tags</h3></div>
</body></html>`

const mobilePage = `<!DOCTYPE html>
<html><head><link rel="stylesheet" href="/css/mobile.css"></head><body>
<div class="search_box" id="m1">
  <a href="/novel/1/">One</a>
  <p>作者：someone</p>
  <p>タグ：<span class="alert_color">R-15</span>　異世界　ラブコメ</p>
</div>
<div class="search_box" id="m2"><p>タグ：異世界 悲劇 異世界</p></div>
<div class="search_box" id="m3"><p>あらすじだけ</p></div>
</body></html>`

const scenarioPage = `<html><body>
<div class="section3" id="R1"><div class="all_keyword"><a>異世界</a><a>ラブコメ</a></div></div>
<div class="section3" id="R2"><div class="all_keyword"><a>異世界</a><a>悲劇</a></div></div>
</body></html>`

func parseDoc(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPage(t *testing.T, s string) *Page {
	t.Helper()
	return NewPage(parseDoc(t, s), DefaultConfig(), quietLogger())
}

// visibleIDs lists the ids of rows that are not hidden.
func visibleIDs(p *Page) []string {
	var ids []string
	for _, row := range p.rows() {
		if !isHidden(row) {
			ids = append(ids, dom.Attr(row, "id"))
		}
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
