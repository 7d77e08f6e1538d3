package tagfilter

import (
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/hameln/dom"
)

func TestPage_Scenario(t *testing.T) {
	p := newTestPage(t, scenarioPage)

	if got := visibleIDs(p); !equalStrings(got, []string{"R1", "R2"}) {
		t.Fatalf("initial: %v", got)
	}

	p.AddTag("異世界")
	if got := visibleIDs(p); !equalStrings(got, []string{"R1", "R2"}) {
		t.Errorf("after 異世界: %v", got)
	}

	p.AddTag("ラブコメ")
	if got := visibleIDs(p); !equalStrings(got, []string{"R1"}) {
		t.Errorf("after ラブコメ (AND): %v", got)
	}

	if m := p.ToggleMode(); m != ModeOR {
		t.Fatalf("toggle: got %v", m)
	}
	if got := visibleIDs(p); !equalStrings(got, []string{"R1", "R2"}) {
		t.Errorf("OR mode: %v", got)
	}

	p.ClearAll()
	if got := visibleIDs(p); !equalStrings(got, []string{"R1", "R2"}) {
		t.Errorf("after clear: %v", got)
	}
}

func TestPage_NoContainerRow(t *testing.T) {
	p := newTestPage(t, desktopPage)
	if got := visibleIDs(p); !equalStrings(got, []string{"r1", "r2", "r3"}) {
		t.Fatalf("empty selection shows every row, got %v", got)
	}

	p.AddTag("異世界")
	p.ToggleMode()
	if got := visibleIDs(p); !equalStrings(got, []string{"r1", "r2"}) {
		t.Errorf("row without tags must be hidden, got %v", got)
	}

	rows := p.Rows()
	if len(rows[2].Tags) != 0 || rows[2].Visible {
		t.Errorf("r3 state: %+v", rows[2])
	}
}

func TestPage_AddTagTwice(t *testing.T) {
	p := newTestPage(t, desktopPage)
	if !p.AddTag("異世界") {
		t.Fatal("first add should change the selection")
	}
	if p.AddTag("異世界") {
		t.Error("second add should be a no-op")
	}
	entries := dom.QueryAll(p.Document(), "#selected-tags-list .tagfilter-selected")
	if len(entries) != 1 {
		t.Errorf("expected one panel entry, got %d", len(entries))
	}
}

func TestPage_ClickControls(t *testing.T) {
	p := newTestPage(t, desktopPage)
	doc := p.Document()

	plus := dom.Query(doc, "#r1 ."+classPlus)
	if plus == nil {
		t.Fatal("no add control in r1")
	}
	// Clicking the text inside the control counts as clicking the control.
	if err := p.Click(plus.FirstChild); err != nil {
		t.Fatalf("click add: %v", err)
	}
	if got := p.Selected(); !equalStrings(got, []string{"R-15"}) {
		t.Fatalf("selected: %v", got)
	}
	if got := visibleIDs(p); !equalStrings(got, []string{"r1"}) {
		t.Errorf("visible: %v", got)
	}

	if err := p.Click(dom.Query(doc, "#mode-toggle-button")); err != nil {
		t.Fatalf("click mode: %v", err)
	}
	if p.Mode() != ModeOR {
		t.Error("mode button should switch to OR")
	}

	remove := dom.Query(doc, "#selected-tags-list .tagfilter-remove")
	if remove == nil {
		t.Fatal("no remove control in panel")
	}
	if err := p.Click(remove); err != nil {
		t.Fatalf("click remove: %v", err)
	}
	if len(p.Selected()) != 0 {
		t.Errorf("selection should be empty, got %v", p.Selected())
	}

	p.AddTag("悲劇")
	clearBtn := dom.Query(doc, "#"+panelID+" [data-tagfilter-action=clear]")
	if err := p.Click(clearBtn); err != nil {
		t.Fatalf("click clear: %v", err)
	}
	if len(p.Selected()) != 0 {
		t.Error("clear should empty the selection")
	}
	if p.Mode() != ModeOR {
		t.Error("clear must keep the mode")
	}
}

func TestPage_ClickNonControl(t *testing.T) {
	p := newTestPage(t, desktopPage)
	err := p.Click(dom.Query(p.Document(), "#r1 h3"))
	if !errors.Is(err, ErrNotControl) {
		t.Errorf("expected ErrNotControl, got %v", err)
	}
}

func TestPage_DispatchUnknown(t *testing.T) {
	p := newTestPage(t, desktopPage)
	err := p.Dispatch(Action{Kind: "explode"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestPage_PanelRender(t *testing.T) {
	p := newTestPage(t, desktopPage)
	doc := p.Document()

	panel := dom.Query(doc, "#"+panelID)
	if panel == nil || panel.Parent != dom.Body(doc) {
		t.Fatal("panel should be appended to body")
	}
	list := dom.Query(doc, "#selected-tags-list")
	if !strings.Contains(dom.TextContent(list, nil), "タグが選択されていません") {
		t.Error("empty selection placeholder missing")
	}

	mode := dom.Query(doc, "#mode-toggle-button")
	if dom.TextContent(mode, nil) != "AND" || !strings.Contains(dom.Attr(mode, "title"), "ORモードに切替") {
		t.Errorf("mode button: %s", dom.Render(mode))
	}

	p.AddTag("異世界")
	p.AddTag("残酷な描写")
	p.ToggleMode()

	if dom.TextContent(mode, nil) != "OR" || !strings.Contains(dom.Attr(mode, "title"), "ANDモードに切替") {
		t.Errorf("mode button after toggle: %s", dom.Render(mode))
	}

	labels := dom.QueryAll(list, ".tagfilter-selected ."+classTag)
	if len(labels) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(labels))
	}
	if dom.TextContent(labels[0], nil) != "残酷な描写" || dom.TextContent(labels[1], nil) != "異世界" {
		t.Error("entries should be sorted")
	}
	if got := dom.StyleProperty(labels[0], "color"); got != "#cc0000" {
		t.Errorf("highlighted entry color: got %q", got)
	}
	if got := dom.StyleProperty(labels[1], "color"); got != "" {
		t.Errorf("plain entry should have no color, got %q", got)
	}
}

func TestPage_ToggleKeepsSelection(t *testing.T) {
	p := newTestPage(t, desktopPage)
	p.AddTag("異世界")
	p.AddTag("悲劇")
	before := p.Selected()
	p.ToggleMode()
	p.ToggleMode()
	if !equalStrings(before, p.Selected()) {
		t.Errorf("toggle changed the selection: %v -> %v", before, p.Selected())
	}
}

func TestPage_HighlightPersists(t *testing.T) {
	p := newTestPage(t, desktopPage)

	if c, ok := p.Color("R-15"); !ok || c != "#ff0000" {
		t.Fatalf("R-15 color: %q %v", c, ok)
	}

	p.AddTag("R-15")
	p.ClearAll()
	p.Rows()
	if c, ok := p.Color("R-15"); !ok || c != "#ff0000" {
		t.Errorf("R-15 color lost: %q %v", c, ok)
	}
	if _, ok := p.Color("異世界"); ok {
		t.Error("plain tags get no color")
	}
}

func TestPage_DecorationIdempotent(t *testing.T) {
	doc := parseDoc(t, desktopPage)
	NewPage(doc, DefaultConfig(), quietLogger())
	first := len(dom.QueryAll(doc, "."+classPlus))
	if first != 6 {
		t.Fatalf("expected 6 add controls, got %d", first)
	}

	p := NewPage(doc, DefaultConfig(), quietLogger())
	if got := len(dom.QueryAll(doc, "."+classPlus)); got != first {
		t.Errorf("second setup duplicated controls: %d -> %d", first, got)
	}
	if got := len(dom.QueryAll(doc, "#"+panelID)); got != 1 {
		t.Errorf("expected a single panel, got %d", got)
	}
	if got := p.Rows()[0].Tags; !equalStrings(got, []string{"R-15", "異世界", "ラブコメ"}) {
		t.Errorf("tags after second setup: %v", got)
	}
}

func TestPage_Compact(t *testing.T) {
	p := newTestPage(t, mobilePage)
	if p.LayoutName() != "compact" {
		t.Fatalf("layout: %s", p.LayoutName())
	}
	if got := len(dom.QueryAll(p.Document(), "."+classPlus)); got != 5 {
		t.Errorf("expected 5 add controls, got %d", got)
	}

	p.AddTag("悲劇")
	if got := visibleIDs(p); !equalStrings(got, []string{"m2"}) {
		t.Errorf("visible: %v", got)
	}
	p.AddTag("R-15")
	p.ToggleMode()
	if got := visibleIDs(p); !equalStrings(got, []string{"m1", "m2"}) {
		t.Errorf("visible in OR: %v", got)
	}
}

func TestPage_FilterReadsLiveMarkup(t *testing.T) {
	p := newTestPage(t, scenarioPage)
	p.AddTag("悲劇")
	if got := visibleIDs(p); !equalStrings(got, []string{"R2"}) {
		t.Fatalf("visible: %v", got)
	}

	// The host page changes R1's tags; the next pass sees it.
	group := dom.Query(p.Document(), "#R1 ."+classTagGroup)
	dom.Append(group, dom.Append(dom.Element("a"), dom.Text("悲劇")))
	p.ToggleMode()
	if got := visibleIDs(p); !equalStrings(got, []string{"R1", "R2"}) {
		t.Errorf("visible after markup change: %v", got)
	}
}

func TestPage_Markdown(t *testing.T) {
	p := newTestPage(t, desktopPage)
	p.AddTag("ラブコメ")

	md, err := p.Markdown("https://syosetu.org/?mode=rank")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if !strings.Contains(md, "Novel One") {
		t.Errorf("visible row missing: %s", md)
	}
	if strings.Contains(md, "Novel Two") {
		t.Errorf("hidden row rendered: %s", md)
	}
	if strings.Contains(md, AddMarker) {
		t.Errorf("controls leaked into markdown: %s", md)
	}
}
