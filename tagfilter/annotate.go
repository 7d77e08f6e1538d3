package tagfilter

import (
	"errors"

	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

// annotateRows decorates every row currently in the document and returns
// how many were rewritten. A row that cannot be decorated is skipped.
func (p *Page) annotateRows() int {
	n := 0
	for _, row := range p.rows() {
		err := p.annotateRow(row)
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrNoTagContainer):
			p.logger.Debug("tagfilter: row without tags", "layout", p.layout.Name())
		default:
			p.logger.Warn("tagfilter: decorate row failed", "error", err)
		}
	}
	return n
}

// annotateRow rewrites one row's tag container: highlighted tags first,
// then the others, each with an add control. This is the only place tag
// colors are registered. A container that was already decorated is left
// alone.
func (p *Page) annotateRow(row *html.Node) error {
	c := p.layout.Container(row)
	if c == nil {
		return ErrNoTagContainer
	}
	if dom.HasClass(c, classDecorated) {
		return nil
	}

	tags := p.layout.Extract(c)
	for _, t := range tags {
		if t.Highlighted {
			p.colors.Register(t.Name, t.Color)
		}
	}

	p.layout.Rebuild(c, tags, addControl)
	dom.AddClass(c, classDecorated)
	return nil
}

func addControl(t RowTag) *html.Node {
	btn := dom.Element("span",
		"class", classPlus,
		"title", "このタグでフィルター",
		"style", "cursor: pointer; color: #666; margin: 0 4px; user-select: none",
		attrAction, string(ActionAdd),
		attrTag, t.Name,
	)
	return dom.Append(btn, dom.Text(AddMarker))
}
