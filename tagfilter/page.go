// Package tagfilter filters the rows of a Hameln ranking or search listing
// by tag.
//
// A Page wraps a parsed listing document. On creation it inserts a floating
// control panel, adds an "add to filter" control after every tag of every
// row, and runs a first filter pass. From then on every change to the
// selection, whether through AddTag, RemoveTag, ClearAll, ToggleMode or a
// Click on one of the injected controls, re-renders the panel and recomputes
// the visibility of every row from the current markup before returning.
//
// Usage:
//
//	page, err := tagfilter.Bootstrap(ctx, tagfilter.NewHTTPSource(url, cfg, logger), cfg, logger)
//	page.AddTag("異世界")
//	page.ToggleMode()
//	page.Render(os.Stdout)
//
// A Page is not safe for concurrent use; callers serialise access the way a
// browser serialises event handlers.
package tagfilter

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

// ActionKind names what a control does.
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
	ActionClear  ActionKind = "clear"
	ActionMode   ActionKind = "mode"
)

// Action is a control activation.
type Action struct {
	Kind ActionKind `json:"action"`
	Tag  string     `json:"tag,omitempty"`
}

// ActionOf reads the action carried by a control node.
func ActionOf(n *html.Node) (Action, bool) {
	if n == nil || !isControl(n) {
		return Action{}, false
	}
	return Action{
		Kind: ActionKind(dom.Attr(n, attrAction)),
		Tag:  dom.Attr(n, attrTag),
	}, true
}

// IsControl reports whether n is one of the injected filter controls.
func IsControl(n *html.Node) bool {
	return n != nil && isControl(n)
}

// Page is the tag filter controller of one listing document.
type Page struct {
	doc    *html.Node
	layout Layout
	sel    *Selection
	colors *Colors
	panel  *panel
	cfg    *Config
	logger *slog.Logger
}

// NewPage sets the filter up on doc: layout detection, control panel,
// row decoration and an initial filter pass.
func NewPage(doc *html.Node, cfg *Config, logger *slog.Logger) *Page {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newPage(doc, DetectLayout(doc, cfg), cfg, logger)
}

func newPage(doc *html.Node, layout Layout, cfg *Config, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	sel := NewSelection()
	colors := NewColors()
	p := &Page{
		doc:    doc,
		layout: layout,
		sel:    sel,
		colors: colors,
		panel:  newPanel(sel, colors),
		cfg:    cfg,
		logger: logger,
	}

	p.insertPanel()
	decorated := p.annotateRows()
	p.panel.render()
	visible := p.applyFilter()

	logger.Info("tagfilter: page ready",
		"layout", layout.Name(), "decorated", decorated, "visible", visible)
	return p
}

// insertPanel appends the panel to <body>, replacing a panel left over
// from an earlier setup of the same document.
func (p *Page) insertPanel() {
	if old := dom.Query(p.doc, "#"+panelID); old != nil && old.Parent != nil {
		old.Parent.RemoveChild(old)
	}
	parent := dom.Body(p.doc)
	if parent == nil {
		parent = p.doc
	}
	dom.Append(parent, p.panel.root)
}

// refresh re-renders the panel and re-runs the filter.
func (p *Page) refresh() {
	p.panel.render()
	p.applyFilter()
}

// AddTag selects tag. Selecting an already selected tag changes nothing
// and returns false.
func (p *Page) AddTag(tag string) bool {
	if !p.sel.Add(tag) {
		return false
	}
	p.refresh()
	return true
}

// RemoveTag deselects tag and reports whether it was selected.
func (p *Page) RemoveTag(tag string) bool {
	if !p.sel.Remove(tag) {
		return false
	}
	p.refresh()
	return true
}

// ClearAll deselects every tag. The mode is kept.
func (p *Page) ClearAll() {
	p.sel.Clear()
	p.refresh()
}

// ToggleMode flips AND and OR and returns the new mode. The selection is
// not touched.
func (p *Page) ToggleMode() Mode {
	m := p.sel.Toggle()
	p.refresh()
	return m
}

// SetMode forces the match mode.
func (p *Page) SetMode(m Mode) {
	if p.sel.Mode() == m {
		return
	}
	p.sel.SetMode(m)
	p.refresh()
}

// Dispatch runs a control action.
func (p *Page) Dispatch(a Action) error {
	switch a.Kind {
	case ActionAdd:
		p.AddTag(a.Tag)
	case ActionRemove:
		p.RemoveTag(a.Tag)
	case ActionClear:
		p.ClearAll()
	case ActionMode:
		p.ToggleMode()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	return nil
}

// Click activates the control n belongs to, as a click on n would in the
// browser.
func (p *Page) Click(n *html.Node) error {
	ctl := dom.Closest(n, nil, isControl)
	if ctl == nil {
		return ErrNotControl
	}
	a, _ := ActionOf(ctl)
	return p.Dispatch(a)
}

// Selected returns the selected tags in lexicographic order.
func (p *Page) Selected() []string { return p.sel.Tags() }

// Mode returns the current match mode.
func (p *Page) Mode() Mode { return p.sel.Mode() }

// Color returns the highlight color registered for tag.
func (p *Page) Color(tag string) (string, bool) { return p.colors.Color(tag) }

// LayoutName reports which layout strategy the page uses.
func (p *Page) LayoutName() string { return p.layout.Name() }

// Document returns the live document.
func (p *Page) Document() *html.Node { return p.doc }

// Rows reports every row's current tags and visibility.
func (p *Page) Rows() []RowState {
	rows := p.rows()
	out := make([]RowState, len(rows))
	for i, row := range rows {
		out[i] = RowState{Index: i, Tags: p.rowTags(row), Visible: !isHidden(row)}
	}
	return out
}

// Render writes the current document.
func (p *Page) Render(w io.Writer) error {
	return html.Render(w, p.doc)
}
