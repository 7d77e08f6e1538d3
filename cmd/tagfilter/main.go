// Command tagfilter filters Hameln ranking and search listings by tag.
//
// Usage:
//
//	tagfilter -url 'https://syosetu.org/?mode=rank' -tags 異世界,ラブコメ      # filtered page on stdout
//	tagfilter -file saved.html -tags 悲劇 -mode or -format markdown
//	tagfilter -serve -config tagfilter.yaml                                    # session viewer over HTTP
//	tagfilter -mcp                                                             # MCP tools on stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/hameln/tagfilter"
	"github.com/hazyhaar/hameln/tagview"
)

type options struct {
	url     string
	file    string
	browser bool
	tags    string
	mode    string
	format  string
}

func main() {
	configPath := flag.String("config", "", "path to tagfilter.yaml")
	var opts options
	flag.StringVar(&opts.url, "url", "", "listing URL to filter")
	flag.StringVar(&opts.file, "file", "", "saved listing HTML to filter")
	flag.BoolVar(&opts.browser, "browser", false, "load -url through headless Chrome")
	flag.StringVar(&opts.tags, "tags", "", "comma separated tags to select")
	flag.StringVar(&opts.mode, "mode", "and", "match mode: and, or")
	flag.StringVar(&opts.format, "format", "html", "output: html, markdown, json")
	serve := flag.Bool("serve", false, "run the session viewer")
	addr := flag.String("addr", "", "listen address for -serve (overrides config)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools on stdin/stdout")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := tagfilter.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = tagfilter.LoadConfigFile(*configPath); err != nil {
			logger.Error("tagfilter: load config", "error", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	var err error
	switch {
	case *mcpStdio:
		err = runMCP(ctx, logger, cfg)
	case *serve:
		err = runServe(ctx, logger, cfg)
	case opts.url != "" || opts.file != "":
		err = runOnce(ctx, logger, cfg, opts, os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, "usage: tagfilter -url <listing> | -file <page.html> [-tags a,b] [-mode and|or] [-format html|markdown|json] | -serve | -mcp")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("tagfilter: fatal", "error", err)
		os.Exit(1)
	}
}

// runOnce loads one listing, applies the requested selection and writes
// the result.
func runOnce(ctx context.Context, logger *slog.Logger, cfg *tagfilter.Config, opts options, w io.Writer) error {
	mode, err := tagfilter.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	var src tagfilter.Source
	switch {
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return err
		}
		src = tagfilter.StaticSource(data)
		if cfg.Poll.MaxAttempts == 0 {
			cfg.Poll.MaxAttempts = 1
		}
	default:
		u, err := cfg.Triggered(opts.url)
		if err != nil {
			return err
		}
		if opts.browser || cfg.Browser.Enabled {
			bs, err := tagfilter.NewBrowserSource(ctx, u.String(), cfg, logger)
			if err != nil {
				return fmt.Errorf("browser: %w", err)
			}
			defer bs.Close()
			src = bs
		} else {
			src = tagfilter.NewHTTPSource(u.String(), cfg, logger)
		}
	}

	page, err := tagfilter.Bootstrap(ctx, src, cfg, logger)
	if err != nil {
		return err
	}
	for _, tag := range strings.Split(opts.tags, ",") {
		page.AddTag(tag)
	}
	page.SetMode(mode)

	switch opts.format {
	case "html", "":
		return page.Render(w)
	case "markdown", "md":
		md, err := page.Markdown(opts.url)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md+"\n")
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Layout   string               `json:"layout"`
			Mode     tagfilter.Mode       `json:"mode"`
			Selected []string             `json:"selected"`
			Rows     []tagfilter.RowState `json:"rows"`
		}{page.LayoutName(), page.Mode(), page.Selected(), page.Rows()})
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *tagfilter.Config) error {
	views := tagview.New(cfg, logger)
	go views.StartSweeper(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           views.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.BootstrapTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("tagfilter: server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("tagfilter: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, logger *slog.Logger, cfg *tagfilter.Config) error {
	views := tagview.New(cfg, logger)
	go views.StartSweeper(ctx)

	srv := mcp.NewServer(&mcp.Implementation{Name: "tagfilter", Version: "1.0.0"}, nil)
	views.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
