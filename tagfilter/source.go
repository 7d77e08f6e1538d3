package tagfilter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/hameln/tagfilter/internal/browser"
	"github.com/hazyhaar/hameln/tagfilter/internal/fetcher"
)

// Source yields the current markup of one listing page. Bootstrap calls
// Load repeatedly until the rows show up.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Load(ctx context.Context) ([]byte, error) { return f(ctx) }

// StaticSource serves fixed markup, e.g. a saved page.
type StaticSource []byte

func (s StaticSource) Load(context.Context) ([]byte, error) { return s, nil }

// HTTPSource fetches the page with a plain GET on every Load.
type HTTPSource struct {
	url   string
	fetch *fetcher.Fetcher
}

// NewHTTPSource returns a Source fetching pageURL.
func NewHTTPSource(pageURL string, cfg *Config, logger *slog.Logger) *HTTPSource {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		url: pageURL,
		fetch: fetcher.New(
			fetcher.WithClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
			fetcher.WithUserAgent(cfg.Fetch.UserAgent),
			fetcher.WithMaxBytes(cfg.Fetch.MaxBytes),
			fetcher.WithLogger(logger),
		),
	}
}

func (s *HTTPSource) Load(ctx context.Context) ([]byte, error) {
	return s.fetch.Fetch(ctx, s.url)
}

// BrowserSource reads the live DOM of a headless Chrome tab on every Load.
// Close it when the page view ends.
type BrowserSource struct {
	tab *browser.Tab
}

// NewBrowserSource opens pageURL in Chrome.
func NewBrowserSource(ctx context.Context, pageURL string, cfg *Config, logger *slog.Logger) (*BrowserSource, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	tab, err := browser.Open(ctx, pageURL, browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Stealth:          cfg.Browser.Stealth,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		NavigateTimeout:  cfg.Browser.NavigateTimeout,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	return &BrowserSource{tab: tab}, nil
}

func (s *BrowserSource) Load(ctx context.Context) ([]byte, error) {
	return s.tab.HTML(ctx)
}

func (s *BrowserSource) Close() error {
	return s.tab.Close()
}
