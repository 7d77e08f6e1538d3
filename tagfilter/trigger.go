package tagfilter

import (
	"fmt"
	"net/url"
	"strings"
)

// Match reports whether u is one of the listings the filter runs on.
func (t TriggerConfig) Match(u *url.URL) bool {
	if u == nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Hostname(), t.Host) {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	mode := u.Query().Get("mode")
	for _, r := range t.Routes {
		if path == r.Path && strings.HasPrefix(mode, r.Mode) {
			return true
		}
	}
	return false
}

// Triggered parses raw and checks it against the trigger. Non matching
// URLs yield ErrNotTriggered.
func (c *Config) Triggered(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTriggered, err)
	}
	if !c.Trigger.Match(u) {
		return nil, fmt.Errorf("%w: %s", ErrNotTriggered, raw)
	}
	return u, nil
}
