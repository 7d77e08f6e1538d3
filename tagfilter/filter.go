package tagfilter

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

// RowState is the outcome of the last filter pass for one row.
type RowState struct {
	Index   int      `json:"index"`
	Tags    []string `json:"tags"`
	Visible bool     `json:"visible"`
}

func (p *Page) rows() []*html.Node {
	return dom.QueryAll(p.doc, p.layout.RowSelector())
}

// rowTags reads a row's tags from the current markup. No colors are
// registered on this path.
func (p *Page) rowTags(row *html.Node) []string {
	c := p.layout.Container(row)
	if c == nil {
		return []string{}
	}
	tags := p.layout.Extract(c)
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// applyFilter recomputes every row's visibility from the DOM and the
// selection and returns the number of visible rows.
func (p *Page) applyFilter() int {
	rows := p.rows()
	visible := 0
	for _, row := range rows {
		show := p.sel.Match(p.rowTags(row))
		setVisible(row, show)
		if show {
			visible++
		}
	}
	p.logger.Debug("tagfilter: filter pass",
		"rows", len(rows), "visible", visible,
		"selected", p.sel.Len(), "mode", p.sel.Mode().String())
	return visible
}

func setVisible(row *html.Node, visible bool) {
	if visible {
		dom.SetStyleProperty(row, "display", "")
	} else {
		dom.SetStyleProperty(row, "display", "none")
	}
}

func isHidden(row *html.Node) bool {
	return dom.StyleProperty(row, "display") == "none"
}
