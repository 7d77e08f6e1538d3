package tagfilter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

var mdConverter = sync.OnceValue(func() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
})

// Markdown renders the visible rows as markdown, one section per row,
// with the filter controls left out. Relative links are resolved against
// baseURL when it is set.
func (p *Page) Markdown(baseURL string) (string, error) {
	convert := func(in string) (string, error) {
		return mdConverter().ConvertString(in)
	}
	if baseURL != "" {
		convert = func(in string) (string, error) {
			return mdConverter().ConvertString(in, converter.WithDomain(baseURL))
		}
	}

	var sections []string
	for _, row := range p.rows() {
		if isHidden(row) {
			continue
		}
		md, err := convert(dom.Render(stripControls(dom.Clone(row))))
		if err != nil {
			return "", fmt.Errorf("tagfilter: markdown: %w", err)
		}
		if md = strings.TrimSpace(md); md != "" {
			sections = append(sections, md)
		}
	}
	return strings.Join(sections, "\n\n---\n\n"), nil
}

// stripControls removes every injected control from a detached subtree.
func stripControls(n *html.Node) *html.Node {
	for _, c := range dom.QueryAll(n, ControlSelector) {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
	}
	return n
}
