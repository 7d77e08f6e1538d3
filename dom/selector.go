// Package dom holds the small amount of DOM plumbing tagfilter needs on top
// of golang.org/x/net/html: a CSS selector subset, attribute and class
// helpers, inline style editing and node construction.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// QueryAll returns all element nodes under root (root included) matching a
// simple CSS selector, in document order and without duplicates.
// Supported forms:
//   - tag: "p", "a"
//   - .class / .a.b: ".section3", ".all_keyword"
//   - #id: "#tag-filter-container"
//   - tag.class, tag#id
//   - [attr], [attr=val], [attr*=val]: "link[href*=mobile]"
//   - descendant combinator: ".section3 .all_keyword a"
//   - selector lists: ".section3, .search_box"
func QueryAll(root *html.Node, selector string) []*html.Node {
	if root == nil {
		return nil
	}
	alts := strings.Split(selector, ",")
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	for _, alt := range alts {
		for _, n := range queryChain(root, alt) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if len(alts) > 1 {
		sortDocumentOrder(root, out)
	}
	return out
}

// Query returns the first match of selector under root, or nil.
func Query(root *html.Node, selector string) *html.Node {
	matches := QueryAll(root, selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Matches reports whether n itself matches selector. Only the last
// compound of a descendant chain is checked against n; the earlier ones
// must match one of its ancestors.
func Matches(n *html.Node, selector string) bool {
	for _, alt := range strings.Split(selector, ",") {
		parts := strings.Fields(alt)
		if len(parts) == 0 {
			continue
		}
		if !matchesSelector(n, parseSimpleSelector(parts[len(parts)-1])) {
			continue
		}
		anc := n.Parent
		i := len(parts) - 2
		for ; i >= 0 && anc != nil; anc = anc.Parent {
			if matchesSelector(anc, parseSimpleSelector(parts[i])) {
				i--
			}
		}
		if i < 0 {
			return true
		}
	}
	return false
}

func queryChain(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}

	matches := matchSimple(root, parts[0])
	for i := 1; i < len(parts); i++ {
		var next []*html.Node
		seen := make(map[*html.Node]bool)
		for _, parent := range matches {
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				for _, m := range matchSimple(c, parts[i]) {
					if !seen[m] {
						seen[m] = true
						next = append(next, m)
					}
				}
			}
		}
		matches = next
	}
	if len(parts) > 1 {
		sortDocumentOrder(root, matches)
	}
	return matches
}

// matchSimple finds all nodes under root (inclusive) matching one compound.
func matchSimple(root *html.Node, sel string) []*html.Node {
	m := parseSimpleSelector(sel)
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if matchesSelector(n, m) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrOp  string // "", "=", "*="
	attrVal string
}

// parseSimpleSelector parses "tag.class", "#id", "tag[attr*=val]", etc.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		switch {
		case strings.Contains(attrPart, "*="):
			i := strings.Index(attrPart, "*=")
			s.attrKey, s.attrOp = attrPart[:i], "*="
			s.attrVal = strings.Trim(attrPart[i+2:], `"'`)
		case strings.Contains(attrPart, "="):
			i := strings.IndexByte(attrPart, '=')
			s.attrKey, s.attrOp = attrPart[:i], "="
			s.attrVal = strings.Trim(attrPart[i+1:], `"'`)
		default:
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
		if j := strings.IndexByte(s.id, '.'); j >= 0 {
			sel += s.id[j:]
			s.id = s.id[:j]
		}
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		for _, c := range strings.Split(sel[idx+1:], ".") {
			if c != "" {
				s.classes = append(s.classes, c)
			}
		}
		sel = sel[:idx]
	}

	s.tag = strings.ToLower(sel)
	return s
}

func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && n.Data != s.tag {
		return false
	}
	if s.id != "" && Attr(n, "id") != s.id {
		return false
	}
	for _, c := range s.classes {
		if !HasClass(n, c) {
			return false
		}
	}
	if s.attrKey != "" {
		if !HasAttr(n, s.attrKey) {
			return false
		}
		val := Attr(n, s.attrKey)
		switch s.attrOp {
		case "=":
			return val == s.attrVal
		case "*=":
			return strings.Contains(val, s.attrVal)
		}
	}
	return true
}

// sortDocumentOrder reorders nodes in place to match a pre-order walk of root.
func sortDocumentOrder(root *html.Node, nodes []*html.Node) {
	if len(nodes) < 2 {
		return
	}
	want := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		want[n] = true
	}
	i := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if want[n] {
			nodes[i] = n
			i++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}
