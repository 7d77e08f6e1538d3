// Package tagview serves tag filtered Hameln listings to clients that do
// not run the filter themselves.
//
// Each opened listing becomes a session holding one tagfilter.Page. The
// page is rendered as HTML with every filter control turned into a small
// form, so a plain browser can drive it, and the same sessions are reachable
// as JSON and as MCP tools:
//
//	srv := tagview.New(cfg, logger)
//	go srv.StartSweeper(ctx)
//	http.ListenAndServe(cfg.Server.Addr, srv.Handler())
//
// A session lives until it is deleted or stays idle longer than
// cfg.Server.SessionTTL. Its selection dies with it.
package tagview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/hameln/tagfilter"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session ID.
	ErrSessionNotFound = errors.New("tagview: session not found")

	// ErrTooManySessions is returned by Open when MaxSessions are live.
	ErrTooManySessions = errors.New("tagview: too many sessions")
)

// SourceFactory returns the Source a new session bootstraps from. A
// Source that implements io.Closer is closed once the page is set up.
type SourceFactory func(ctx context.Context, pageURL string) (tagfilter.Source, error)

// Server owns the sessions.
type Server struct {
	cfg     *tagfilter.Config
	logger  *slog.Logger
	sources SourceFactory
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Server.
type Option func(*Server)

// WithSourceFactory replaces how listings are loaded.
func WithSourceFactory(f SourceFactory) Option {
	return func(s *Server) { s.sources = f }
}

// WithClock sets the time source used for idle expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server. Listings are fetched over HTTP, or through
// headless Chrome when cfg.Browser.Enabled is set.
func New(cfg *tagfilter.Config, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = tagfilter.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	s.sources = s.defaultSource
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) defaultSource(ctx context.Context, pageURL string) (tagfilter.Source, error) {
	if s.cfg.Browser.Enabled {
		return tagfilter.NewBrowserSource(ctx, pageURL, s.cfg, s.logger)
	}
	return tagfilter.NewHTTPSource(pageURL, s.cfg, s.logger), nil
}

// Open loads the listing at rawURL and starts a session on it. Only URLs
// accepted by the trigger configuration are opened.
func (s *Server) Open(ctx context.Context, rawURL string) (*Session, error) {
	u, err := s.cfg.Triggered(rawURL)
	if err != nil {
		return nil, err
	}
	if s.Len() >= s.cfg.Server.MaxSessions {
		return nil, ErrTooManySessions
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.BootstrapTimeout)
	defer cancel()

	src, err := s.sources(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("tagview: source: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	page, err := tagfilter.Bootstrap(ctx, src, s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("tagview: bootstrap %s: %w", u, err)
	}

	now := s.now()
	sess := &Session{
		ID:       uuid.NewString(),
		URL:      u.String(),
		Created:  now,
		page:     page,
		lastUsed: now,
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.Server.MaxSessions {
		s.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("tagview: session opened", "session", sess.ID, "url", sess.URL, "layout", page.LayoutName())
	return sess, nil
}

// Get returns a live session.
func (s *Server) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Close ends a session and discards its selection.
func (s *Server) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.logger.Info("tagview: session closed", "session", id)
	return nil
}

// Len reports the number of live sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Markdown renders the visible rows of session id.
func (s *Server) Markdown(id string) (string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}
	var md string
	err = sess.do(s.now(), func(p *tagfilter.Page) error {
		var err error
		md, err = p.Markdown(sess.URL)
		return err
	})
	return md, err
}

// Sweep closes the sessions idle for longer than the TTL and returns how
// many it closed.
func (s *Server) Sweep() int {
	cutoff := s.now().Add(-s.cfg.Server.SessionTTL)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.logger.Info("tagview: session expired", "session", id)
	}
	return len(expired)
}

// StartSweeper expires idle sessions until ctx is done.
func (s *Server) StartSweeper(ctx context.Context) {
	interval := s.cfg.Server.SessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
