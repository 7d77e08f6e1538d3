package tagview

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
	"github.com/hazyhaar/hameln/tagfilter"
)

const (
	actionFormID = "tagfilter-actions"
	controlField = "control"
)

// renderView writes a copy of the session page that a plain browser can
// drive. Every filter control becomes a submit button of one shared form
// posting to the session's action endpoint, and relative links point back
// to the listing's origin.
func renderView(w io.Writer, sess *Session, p *tagfilter.Page) error {
	doc := dom.Clone(p.Document())
	base, _ := url.Parse(sess.URL)

	for _, ctl := range dom.QueryAll(doc, tagfilter.ControlSelector) {
		a, ok := tagfilter.ActionOf(ctl)
		if !ok || ctl.Parent == nil {
			continue
		}
		btn := controlButton(a, ctl)
		ctl.Parent.InsertBefore(btn, ctl)
		ctl.Parent.RemoveChild(ctl)
	}
	if base != nil {
		absolutize(doc, base)
	}

	body := dom.Body(doc)
	if body == nil {
		body = doc
	}
	dom.Append(body,
		dom.Element("form",
			"id", actionFormID,
			"method", "post",
			"action", sessionPath(sess.ID)+"/actions",
		),
		sessionBar(sess),
	)
	return html.Render(w, doc)
}

// controlButton keeps the control's look and content and encodes its
// action as the submitted value.
func controlButton(a tagfilter.Action, ctl *html.Node) *html.Node {
	btn := dom.Element("button",
		"type", "submit",
		"form", actionFormID,
		"name", controlField,
		"value", encodeControl(a),
	)
	for _, key := range []string{"id", "class", "title", "style"} {
		if v := dom.Attr(ctl, key); v != "" {
			dom.SetAttr(btn, key, v)
		}
	}
	return dom.Append(btn, dom.Children(ctl)...)
}

func encodeControl(a tagfilter.Action) string {
	if a.Tag == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.Tag
}

func decodeControl(v string) tagfilter.Action {
	kind, tag, _ := strings.Cut(v, ":")
	return tagfilter.Action{Kind: tagfilter.ActionKind(kind), Tag: tag}
}

var linkAttrs = map[string]string{
	"a":    "href",
	"link": "href",
	"img":  "src",
}

func absolutize(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		if key, ok := linkAttrs[n.Data]; ok {
			if v := dom.Attr(n, key); v != "" && !strings.HasPrefix(v, "#") {
				if ref, err := url.Parse(v); err == nil {
					dom.SetAttr(n, key, base.ResolveReference(ref).String())
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		absolutize(c, base)
	}
}

func sessionBar(sess *Session) *html.Node {
	bar := dom.Element("div",
		"id", "tagview-session",
		"style", "position: fixed; bottom: 10px; right: 10px; background: #fff; border: 1px solid #ccc; "+
			"border-radius: 5px; padding: 6px 10px; font-size: 12px; z-index: 9999",
	)
	closeForm := dom.Element("form",
		"method", "post",
		"action", sessionPath(sess.ID)+"/close",
		"style", "display: inline; margin-left: 8px",
	)
	dom.Append(closeForm, dom.Append(dom.Element("button", "type", "submit"), dom.Text("閉じる")))
	return dom.Append(bar,
		dom.Append(dom.Element("a", "href", sess.URL, "rel", "noreferrer"), dom.Text(sess.URL)),
		dom.Text(" "),
		dom.Append(dom.Element("a", "href", sessionPath(sess.ID)+"/state"), dom.Text("JSON")),
		dom.Text(" "),
		dom.Append(dom.Element("a", "href", sessionPath(sess.ID)+"/markdown"), dom.Text("Markdown")),
		closeForm,
	)
}

func sessionPath(id string) string {
	return "/sessions/" + url.PathEscape(id)
}
