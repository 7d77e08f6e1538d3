package tagfilter

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Poll.Interval != 500*time.Millisecond {
		t.Errorf("poll interval: %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 0 {
		t.Errorf("poll should be unbounded by default, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Layout.Standard.RowSelector != ".section3" || cfg.Layout.Standard.ContainerSelector != ".all_keyword" {
		t.Errorf("standard layout: %+v", cfg.Layout.Standard)
	}
	if cfg.AlertColor != "#ff0000" {
		t.Errorf("alert color: %s", cfg.AlertColor)
	}
	if len(cfg.Trigger.Routes) != 2 {
		t.Errorf("routes: %+v", cfg.Trigger.Routes)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagfilter.yaml")
	data := `
poll:
  interval: 250ms
  max_attempts: 40
layout:
  standard:
    row_selector: ".novel_row"
alert_color: "#aa0000"
sanitize: true
server:
  addr: "127.0.0.1:9000"
  session_ttl: 5m
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Poll.Interval != 250*time.Millisecond || cfg.Poll.MaxAttempts != 40 {
		t.Errorf("poll: %+v", cfg.Poll)
	}
	if cfg.Layout.Standard.RowSelector != ".novel_row" {
		t.Errorf("row selector: %s", cfg.Layout.Standard.RowSelector)
	}
	// Unset fields keep their defaults.
	if cfg.Layout.Standard.ContainerSelector != ".all_keyword" {
		t.Errorf("container selector: %s", cfg.Layout.Standard.ContainerSelector)
	}
	if cfg.AlertColor != "#aa0000" || !cfg.Sanitize {
		t.Errorf("alert color %q sanitize %v", cfg.AlertColor, cfg.Sanitize)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.SessionTTL != 5*time.Minute {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.Server.MaxSessions != 256 {
		t.Errorf("max sessions default: %d", cfg.Server.MaxSessions)
	}
	if cfg.Trigger.Host != "syosetu.org" {
		t.Errorf("trigger host default: %s", cfg.Trigger.Host)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("poll: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected parse error")
	}
}
