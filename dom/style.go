package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// declaration is one entry of a style attribute. raw is the original
// text and is written back unchanged unless the entry is edited.
type declaration struct {
	prop, val, raw string
}

// splitDeclarations splits a style attribute on the semicolons that are
// outside parentheses and quotes, so url(data:...;base64,...) stays whole.
func splitDeclarations(s string) []string {
	var parts []string
	depth, start := 0, 0
	var quote rune
	escaped := false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseStyle(s string) []declaration {
	var decls []declaration
	for _, part := range splitDeclarations(s) {
		raw := strings.TrimSpace(part)
		if raw == "" {
			continue
		}
		d := declaration{raw: raw}
		if i := strings.IndexByte(raw, ':'); i >= 0 {
			d.prop = strings.ToLower(strings.TrimSpace(raw[:i]))
			d.val = strings.TrimSpace(raw[i+1:])
		}
		decls = append(decls, d)
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		if d.raw != "" {
			parts[i] = d.raw
		} else {
			parts[i] = d.prop + ": " + d.val
		}
	}
	return strings.Join(parts, "; ")
}

// StyleProperty returns the value of one inline style declaration.
func StyleProperty(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(Attr(n, "style")) {
		if d.prop != "" && d.prop == prop {
			return d.val
		}
	}
	return ""
}

// SetStyleProperty sets one inline style declaration, keeping the others.
// An empty value removes the declaration; the style attribute itself is
// dropped once no declaration is left.
func SetStyleProperty(n *html.Node, prop, val string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(Attr(n, "style"))
	out := decls[:0]
	found := false
	for _, d := range decls {
		if d.prop != "" && d.prop == prop {
			if val == "" || found {
				continue
			}
			d.val, d.raw = val, ""
			found = true
		}
		out = append(out, d)
	}
	if !found && val != "" {
		out = append(out, declaration{prop: prop, val: val})
	}
	if len(out) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", formatStyle(out))
}
