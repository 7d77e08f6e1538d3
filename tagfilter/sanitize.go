package tagfilter

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Rows, tag containers and highlight markers are found by class, and
	// highlight colors may be inline.
	p.AllowAttrs("class", "id", "title", "style").Globally()
	p.AllowStyles("color", "display").Globally()
	p.AllowElements("div", "span", "p", "section")
	return p
})

// Sanitize strips scripts, event handlers and other active content from a
// listing before it is served from another origin. Structure, classes and
// inline styles survive so rows and tags are still found.
func Sanitize(raw []byte) []byte {
	return sanitizePolicy().SanitizeBytes(raw)
}
