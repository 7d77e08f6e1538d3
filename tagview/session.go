package tagview

import (
	"sync"
	"time"

	"github.com/hazyhaar/hameln/tagfilter"
)

// Session is one open listing and its filter state.
type Session struct {
	ID      string
	URL     string
	Created time.Time

	mu       sync.Mutex
	page     *tagfilter.Page
	lastUsed time.Time
}

func (s *Session) do(now time.Time, fn func(*tagfilter.Page) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
	return fn(s.page)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// State is the JSON view of a session.
type State struct {
	ID       string               `json:"id"`
	URL      string               `json:"url"`
	Layout   string               `json:"layout"`
	Mode     tagfilter.Mode       `json:"mode"`
	Selected []string             `json:"selected"`
	Colors   map[string]string    `json:"colors,omitempty"`
	Visible  int                  `json:"visible"`
	Rows     []tagfilter.RowState `json:"rows"`
}

func (s *Session) state(p *tagfilter.Page) *State {
	st := &State{
		ID:       s.ID,
		URL:      s.URL,
		Layout:   p.LayoutName(),
		Mode:     p.Mode(),
		Selected: p.Selected(),
		Rows:     p.Rows(),
	}
	for _, tag := range st.Selected {
		if c, ok := p.Color(tag); ok {
			if st.Colors == nil {
				st.Colors = make(map[string]string)
			}
			st.Colors[tag] = c
		}
	}
	for _, r := range st.Rows {
		if r.Visible {
			st.Visible++
		}
	}
	return st
}

// State snapshots session id.
func (s *Server) State(id string) (*State, error) {
	return s.Apply(id, nil)
}

// Apply runs action on session id, when non nil, and returns the
// resulting state.
func (s *Server) Apply(id string, action *tagfilter.Action) (*State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var st *State
	err = sess.do(s.now(), func(p *tagfilter.Page) error {
		if action != nil {
			if err := p.Dispatch(*action); err != nil {
				return err
			}
		}
		st = sess.state(p)
		return nil
	})
	return st, err
}
