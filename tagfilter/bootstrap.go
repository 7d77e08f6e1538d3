package tagfilter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/hameln/dom"
)

// Bootstrap waits for the listing rows to exist, then sets the filter up
// once and returns the Page.
//
// The source is polled at cfg.Poll.Interval. With MaxAttempts at 0 the
// wait is unbounded and ends only when rows appear or ctx is done. Load
// and parse failures are logged and retried like an empty page.
// Rows that appear after setup are not decorated or filtered.
func Bootstrap(ctx context.Context, src Source, cfg *Config, logger *slog.Logger) (*Page, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, layout, err := loadReady(ctx, src, cfg)
		if err == nil {
			logger.Debug("tagfilter: rows present", "attempt", attempt, "layout", layout.Name())
			return newPage(doc, layout, cfg, logger), nil
		}
		if !errors.Is(err, errNotReady) {
			logger.Warn("tagfilter: load failed", "attempt", attempt, "error", err)
		}

		if cfg.Poll.MaxAttempts > 0 && attempt >= cfg.Poll.MaxAttempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrPollExhausted, attempt)
		}

		timer := time.NewTimer(cfg.Poll.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// loadReady loads and parses one snapshot. It returns errNotReady when
// the layout's rows are not in it yet.
func loadReady(ctx context.Context, src Source, cfg *Config) (*html.Node, Layout, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("tagfilter: parse: %w", err)
	}

	// The layout marker lives in <head>, which sanitising drops, so the
	// layout is decided on the raw document.
	layout := DetectLayout(doc, cfg)
	if cfg.Sanitize {
		doc, err = html.Parse(bytes.NewReader(Sanitize(raw)))
		if err != nil {
			return nil, nil, fmt.Errorf("tagfilter: parse sanitized: %w", err)
		}
	}

	if dom.Query(doc, layout.RowSelector()) == nil {
		return nil, nil, errNotReady
	}
	return doc, layout, nil
}
