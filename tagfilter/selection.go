package tagfilter

import (
	"fmt"
	"sort"
	"strings"
)

// Mode is the row matching mode.
type Mode int

const (
	// ModeAND shows rows carrying every selected tag.
	ModeAND Mode = iota
	// ModeOR shows rows carrying at least one selected tag.
	ModeOR
)

func (m Mode) String() string {
	if m == ModeOR {
		return "OR"
	}
	return "AND"
}

// ParseMode accepts "and"/"or" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND", "":
		return ModeAND, nil
	case "OR":
		return ModeOR, nil
	}
	return ModeAND, fmt.Errorf("tagfilter: invalid mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Selection is the set of selected tags plus the match mode. Members are
// always normalized; the zero value is not usable, see NewSelection.
type Selection struct {
	tags map[string]struct{}
	mode Mode
}

// NewSelection returns an empty selection in AND mode.
func NewSelection() *Selection {
	return &Selection{tags: make(map[string]struct{})}
}

// Add inserts tag. It returns false when the tag was already selected or
// normalizes to nothing.
func (s *Selection) Add(tag string) bool {
	tag = Normalize(tag)
	if tag == "" {
		return false
	}
	if _, ok := s.tags[tag]; ok {
		return false
	}
	s.tags[tag] = struct{}{}
	return true
}

// Remove deletes tag and reports whether it was selected.
func (s *Selection) Remove(tag string) bool {
	tag = Normalize(tag)
	if _, ok := s.tags[tag]; !ok {
		return false
	}
	delete(s.tags, tag)
	return true
}

// Clear empties the selection and returns how many tags were dropped.
// The mode is kept.
func (s *Selection) Clear() int {
	n := len(s.tags)
	clear(s.tags)
	return n
}

// Toggle flips AND and OR and returns the new mode.
func (s *Selection) Toggle() Mode {
	if s.mode == ModeAND {
		s.mode = ModeOR
	} else {
		s.mode = ModeAND
	}
	return s.mode
}

// SetMode forces the match mode.
func (s *Selection) SetMode(m Mode) { s.mode = m }

func (s *Selection) Mode() Mode { return s.mode }

func (s *Selection) Len() int { return len(s.tags) }

func (s *Selection) Has(tag string) bool {
	_, ok := s.tags[Normalize(tag)]
	return ok
}

// Tags returns the selected tags in lexicographic order.
func (s *Selection) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Match reports whether a row carrying rowTags is visible under the
// selection. An empty selection matches every row, including rows with
// no tags at all.
func (s *Selection) Match(rowTags []string) bool {
	if len(s.tags) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(rowTags))
	for _, t := range rowTags {
		have[t] = struct{}{}
	}
	if s.mode == ModeOR {
		for t := range s.tags {
			if _, ok := have[t]; ok {
				return true
			}
		}
		return false
	}
	for t := range s.tags {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// Colors maps highlighted tags to their display color. Entries are write
// once: a registered tag keeps its color for the life of the page.
type Colors struct {
	m map[string]string
}

func NewColors() *Colors {
	return &Colors{m: make(map[string]string)}
}

// Register records color for tag unless the tag is already known. It
// reports whether a new entry was written.
func (c *Colors) Register(tag, color string) bool {
	tag = Normalize(tag)
	if tag == "" || color == "" {
		return false
	}
	if _, ok := c.m[tag]; ok {
		return false
	}
	c.m[tag] = color
	return true
}

// Color returns the registered color of tag.
func (c *Colors) Color(tag string) (string, bool) {
	v, ok := c.m[Normalize(tag)]
	return v, ok
}
