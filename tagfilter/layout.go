package tagfilter

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/hazyhaar/hameln/dom"
)

// Control markup shared by the annotator, the panel and Click.
const (
	attrAction = "data-tagfilter-action"
	attrTag    = "data-tagfilter-tag"

	classPlus       = "tag-plus-button"
	classDecorated  = "tagfilter-decorated"
	classAlertGroup = "tagfilter-alert-group"
	classTagGroup   = "tagfilter-tag-group"
	classTag        = "tagfilter-tag"
)

// ControlSelector matches every injected filter control.
const ControlSelector = "[" + attrAction + "]"

// RowTag is one tag read from a row's markup.
type RowTag struct {
	Name        string
	Highlighted bool
	Color       string // set for highlighted tags
	Href        string // link target in the standard layout
}

// Layout is a page layout strategy: where rows and their tags live, how
// tags are read, and how a decorated tag list is written back.
type Layout interface {
	Name() string
	RowSelector() string
	// Container returns the node holding row's tags, or nil.
	Container(row *html.Node) *html.Node
	// Extract reads the tags of a container in document order, normalized
	// and deduplicated. It has no side effects.
	Extract(container *html.Node) []RowTag
	// Rebuild replaces the container's content with highlighted tags
	// first, then the rest, each followed by control(tag).
	Rebuild(container *html.Node, tags []RowTag, control func(RowTag) *html.Node)
}

// DetectLayout picks the compact layout when the document loads the
// mobile stylesheet, the standard one otherwise. Links that are not
// stylesheets, such as rel="alternate" pointers to the mobile site, do not
// count.
func DetectLayout(doc *html.Node, cfg *Config) Layout {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if marker := cfg.Layout.MobileStylesheet; marker != "" {
		for _, link := range dom.QueryAll(doc, "link") {
			if isStylesheet(link) && strings.Contains(dom.Attr(link, "href"), marker) {
				return &compactLayout{cfg: cfg.Layout.Compact, alertColor: cfg.AlertColor}
			}
		}
	}
	return &standardLayout{cfg: cfg.Layout.Standard, alertColor: cfg.AlertColor}
}

func isStylesheet(link *html.Node) bool {
	for _, tok := range strings.Fields(dom.Attr(link, "rel")) {
		if strings.EqualFold(tok, "stylesheet") {
			return true
		}
	}
	return false
}

func isControl(n *html.Node) bool {
	return n.Type == html.ElementNode && dom.HasAttr(n, attrAction)
}

// inControl reports whether n sits inside a control below stop.
func inControl(n, stop *html.Node) bool {
	return dom.Closest(n, stop, isControl) != nil
}

// highlightColor returns the inline color of the closest node that has
// one, falling back to def.
func highlightColor(def string, nodes ...*html.Node) string {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if c := dom.StyleProperty(n, "color"); c != "" {
			return c
		}
	}
	return def
}

// mergeTag appends t to tags unless its name is already there; a repeat
// that is highlighted upgrades the earlier entry.
func mergeTag(tags []RowTag, index map[string]int, t RowTag) []RowTag {
	if t.Name == "" {
		return tags
	}
	if i, ok := index[t.Name]; ok {
		if t.Highlighted && !tags[i].Highlighted {
			tags[i].Highlighted = true
			tags[i].Color = t.Color
		}
		if tags[i].Href == "" {
			tags[i].Href = t.Href
		}
		return tags
	}
	index[t.Name] = len(tags)
	return append(tags, t)
}

func splitHighlighted(tags []RowTag) (alert, normal []RowTag) {
	for _, t := range tags {
		if t.Highlighted {
			alert = append(alert, t)
		} else {
			normal = append(normal, t)
		}
	}
	return alert, normal
}

// --- standard (desktop) layout ---

type standardLayout struct {
	cfg        StandardLayoutConfig
	alertColor string
}

func (l *standardLayout) Name() string        { return "standard" }
func (l *standardLayout) RowSelector() string { return l.cfg.RowSelector }

func (l *standardLayout) Container(row *html.Node) *html.Node {
	return dom.Query(row, l.cfg.ContainerSelector)
}

func (l *standardLayout) Extract(container *html.Node) []RowTag {
	if container == nil {
		return nil
	}
	var tags []RowTag
	index := make(map[string]int)
	for _, a := range dom.QueryAll(container, l.cfg.TagSelector) {
		if inControl(a, container) {
			continue
		}
		t := RowTag{
			Name: Normalize(dom.TextContent(a, isControl)),
			Href: dom.Attr(a, "href"),
		}
		alert := dom.Closest(a, container, func(n *html.Node) bool {
			return dom.HasClass(n, l.cfg.AlertClass)
		})
		if alert != nil {
			t.Highlighted = true
			t.Color = highlightColor(l.alertColor, a, alert)
		}
		tags = mergeTag(tags, index, t)
	}
	return tags
}

func (l *standardLayout) Rebuild(container *html.Node, tags []RowTag, control func(RowTag) *html.Node) {
	dom.RemoveChildren(container)
	alert, normal := splitHighlighted(tags)

	build := func(t RowTag) *html.Node {
		a := dom.Element("a")
		if t.Href != "" {
			dom.SetAttr(a, "href", t.Href)
		}
		if t.Highlighted {
			dom.SetAttr(a, "class", l.cfg.AlertClass)
			dom.SetStyleProperty(a, "color", t.Color)
		}
		return dom.Append(a, dom.Text(t.Name))
	}
	appendGroup(container, classAlertGroup, alert, build, control)
	appendGroup(container, classTagGroup, normal, build, control)
}

func appendGroup(container *html.Node, class string, tags []RowTag, build func(RowTag) *html.Node, control func(RowTag) *html.Node) {
	if len(tags) == 0 {
		return
	}
	group := dom.Element("span", "class", class)
	for _, t := range tags {
		dom.Append(group, build(t), control(t), dom.Text(" "))
	}
	dom.Append(container, group)
}

// --- compact (mobile) layout ---

type compactLayout struct {
	cfg        CompactLayoutConfig
	alertColor string
}

func (l *compactLayout) Name() string        { return "compact" }
func (l *compactLayout) RowSelector() string { return l.cfg.RowSelector }

// Container returns the first paragraph whose text starts with a tag label.
func (l *compactLayout) Container(row *html.Node) *html.Node {
	for _, p := range dom.QueryAll(row, l.cfg.ParagraphSelector) {
		if _, ok := l.label(p); ok {
			return p
		}
	}
	return nil
}

// label returns the configured label p starts with.
func (l *compactLayout) label(p *html.Node) (string, bool) {
	text := strings.TrimSpace(norm.NFKC.String(dom.TextContent(p, isControl)))
	for _, lb := range l.cfg.Labels {
		if strings.HasPrefix(text, norm.NFKC.String(lb)) {
			return lb, true
		}
	}
	return "", false
}

func (l *compactLayout) isAlert(n *html.Node) bool {
	return dom.HasClass(n, l.cfg.AlertClass)
}

func (l *compactLayout) Extract(container *html.Node) []RowTag {
	if container == nil {
		return nil
	}
	var tags []RowTag
	index := make(map[string]int)

	// Highlighted tags sit in their own elements; their text is left out of
	// the prose pass below so it is not counted twice.
	for _, el := range dom.QueryAll(container, "."+l.cfg.AlertClass) {
		if inControl(el, container) || dom.Closest(el.Parent, container, l.isAlert) != nil {
			continue
		}
		color := highlightColor(l.alertColor, el)
		for _, tok := range splitTokens(norm.NFKC.String(dom.TextContent(el, isControl))) {
			tags = mergeTag(tags, index, RowTag{Name: Normalize(tok), Highlighted: true, Color: color})
		}
	}

	rest := dom.TextContent(container, func(n *html.Node) bool {
		return isControl(n) || l.isAlert(n)
	})
	rest = strings.TrimSpace(norm.NFKC.String(rest))
	for _, lb := range l.cfg.Labels {
		if p := norm.NFKC.String(lb); strings.HasPrefix(rest, p) {
			rest = rest[len(p):]
			break
		}
	}
	for _, tok := range splitTokens(rest) {
		tags = mergeTag(tags, index, RowTag{Name: Normalize(tok)})
	}
	return tags
}

func (l *compactLayout) Rebuild(container *html.Node, tags []RowTag, control func(RowTag) *html.Node) {
	label, _ := l.label(container)
	dom.RemoveChildren(container)
	if label != "" {
		dom.Append(container, dom.Text(label+" "))
	}
	alert, normal := splitHighlighted(tags)

	build := func(t RowTag) *html.Node {
		s := dom.Element("span", "class", classTag)
		if t.Highlighted {
			dom.SetAttr(s, "class", l.cfg.AlertClass)
			dom.SetStyleProperty(s, "color", t.Color)
		}
		return dom.Append(s, dom.Text(t.Name))
	}
	appendGroup(container, classAlertGroup, alert, build, control)
	appendGroup(container, classTagGroup, normal, build, control)
}
