// Package browser is the headless Chrome page source. It launches Chrome
// (or connects to a remote one) through Rod, opens the listing in one tab
// and hands out the live DOM as HTML each time it is asked, so a poll for
// rows sees content rendered after load.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures a Tab.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Stealth opens the tab through go-rod/stealth.
	Stealth bool

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	// NavigateTimeout bounds navigation and load. Default: 30s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Tab is one Chrome tab showing a listing page.
type Tab struct {
	PageURL string

	page    *rod.Page
	browser *rod.Browser
	lnch    *launcher.Launcher
	router  stopper // request hijacking, when resources are blocked
	logger  *slog.Logger
}

type stopper interface {
	Stop() error
}

// Open starts or connects to Chrome, opens pageURL and waits for load.
func Open(ctx context.Context, pageURL string, cfg Config) (*Tab, error) {
	cfg.defaults()
	log := cfg.Logger

	t := &Tab{PageURL: pageURL, logger: log}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		t.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL)
	}

	t.browser = rod.New().ControlURL(wsURL)
	if err := t.browser.Connect(); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	var err error
	if cfg.Stealth {
		t.page, err = stealth.Page(t.browser)
	} else {
		t.page, err = t.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(cfg.ResourceBlocking) > 0 {
		t.router = applyResourceBlocking(t.page, cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()

	if err := t.page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := t.page.Context(navCtx).WaitLoad(); err != nil {
		log.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return t, nil
}

// HTML serialises the tab's current DOM.
func (t *Tab) HTML(ctx context.Context) ([]byte, error) {
	s, err := t.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(s), nil
}

// Close closes the tab and shuts down a locally launched Chrome.
func (t *Tab) Close() error {
	var firstErr error
	if t.router != nil {
		firstErr = t.router.Stop()
		t.router = nil
	}
	if t.page != nil {
		if err := t.page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.page = nil
	}
	if t.browser != nil {
		if err := t.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.browser = nil
	}
	if t.lnch != nil {
		t.lnch.Cleanup()
		t.lnch = nil
	}
	return firstErr
}
