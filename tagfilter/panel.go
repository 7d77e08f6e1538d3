package tagfilter

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

const panelID = "tag-filter-container"

// panel is the floating control panel. It is a view over the selection
// and colors and is rebuilt on every render.
type panel struct {
	root   *html.Node
	mode   *html.Node
	list   *html.Node
	sel    *Selection
	colors *Colors
}

func newPanel(sel *Selection, colors *Colors) *panel {
	p := &panel{sel: sel, colors: colors}

	p.root = dom.Element("div",
		"id", panelID,
		"style", "position: fixed; top: 10px; right: 10px; background: white; padding: 15px; "+
			"border: 1px solid #ccc; border-radius: 5px; box-shadow: 0 2px 5px rgba(0,0,0,0.2); "+
			"z-index: 9999; font-size: 14px; min-width: 220px",
	)

	title := dom.Append(dom.Element("h3", "style", "margin-top: 0; margin-bottom: 10px"),
		dom.Text("フィルター中のタグ"))

	p.mode = dom.Element("button",
		"id", "mode-toggle-button",
		"type", "button",
		"style", "padding: 3px 8px; border: 1px solid #ccc; border-radius: 3px; background: #f8f8f8; cursor: pointer",
		attrAction, string(ActionMode),
	)
	modeRow := dom.Append(
		dom.Element("div", "style", "margin-bottom: 15px; display: flex; justify-content: space-between; align-items: center; gap: 10px"),
		dom.Append(dom.Element("span"), dom.Text("フィルターモード：")),
		p.mode,
	)

	p.list = dom.Element("div",
		"id", "selected-tags-list",
		"style", "max-height: 60vh; overflow-y: auto; padding-right: 5px",
	)

	clearBtn := dom.Append(dom.Element("button",
		"type", "button",
		"style", "margin-top: 10px; padding: 5px 10px; border: 1px solid #ccc; border-radius: 3px; background: #f8f8f8; cursor: pointer; width: 100%",
		attrAction, string(ActionClear),
	), dom.Text("すべてクリア"))

	dom.Append(p.root, title, modeRow, p.list, clearBtn)
	return p
}

func modeTitle(m Mode) string {
	if m == ModeOR {
		return "いずれかのタグを含む小説を表示（クリックでANDモードに切替）"
	}
	return "すべてのタグを含む小説を表示（クリックでORモードに切替）"
}

// render refreshes the mode button and the selected tag list.
func (p *panel) render() {
	dom.RemoveChildren(p.mode)
	dom.Append(p.mode, dom.Text(p.sel.Mode().String()))
	dom.SetAttr(p.mode, "title", modeTitle(p.sel.Mode()))

	dom.RemoveChildren(p.list)
	if p.sel.Len() == 0 {
		dom.Append(p.list, dom.Append(dom.Element("div", "style", "color: #666"),
			dom.Text("タグが選択されていません")))
		return
	}

	for _, tag := range p.sel.Tags() {
		text := dom.Append(dom.Element("span", "class", classTag, "style", "margin-right: 10px"), dom.Text(tag))
		if color, ok := p.colors.Color(tag); ok {
			dom.SetStyleProperty(text, "color", color)
		}
		remove := dom.Append(dom.Element("span",
			"class", "tagfilter-remove",
			"title", "このタグを外す",
			"style", "cursor: pointer; color: #666; padding: 0 5px",
			attrAction, string(ActionRemove),
			attrTag, tag,
		), dom.Text("×"))
		entry := dom.Element("div",
			"class", "tagfilter-selected",
			"style", "margin: 5px 0; padding: 5px; background: #f8f8f8; border-radius: 3px; display: flex; justify-content: space-between; align-items: center",
		)
		dom.Append(p.list, dom.Append(entry, text, remove))
	}
}
