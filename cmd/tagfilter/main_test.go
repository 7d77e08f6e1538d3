package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/hameln/tagfilter"
)

const page = `<html><body>
<div class="section3" id="R1"><h3>First</h3><div class="all_keyword"><a>異世界</a><a>ラブコメ</a></div></div>
<div class="section3" id="R2"><h3>Second</h3><div class="all_keyword"><a>異世界</a><a>悲劇</a></div></div>
</body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rank.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce_JSON(t *testing.T) {
	var out bytes.Buffer
	opts := options{file: writePage(t), tags: "異世界, ラブコメ", mode: "and", format: "json"}
	if err := runOnce(context.Background(), quiet(), tagfilter.DefaultConfig(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var res struct {
		Mode     string `json:"mode"`
		Selected []string
		Rows     []tagfilter.RowState
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if res.Mode != "AND" || len(res.Selected) != 2 {
		t.Errorf("selection: %+v", res)
	}
	if !res.Rows[0].Visible || res.Rows[1].Visible {
		t.Errorf("rows: %+v", res.Rows)
	}
}

func TestRunOnce_MarkdownOR(t *testing.T) {
	var out bytes.Buffer
	opts := options{file: writePage(t), tags: "悲劇", mode: "or", format: "markdown"}
	if err := runOnce(context.Background(), quiet(), tagfilter.DefaultConfig(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s := out.String(); !strings.Contains(s, "Second") || strings.Contains(s, "First") {
		t.Errorf("markdown: %s", s)
	}
}

func TestRunOnce_HTML(t *testing.T) {
	var out bytes.Buffer
	opts := options{file: writePage(t), format: "html"}
	if err := runOnce(context.Background(), quiet(), tagfilter.DefaultConfig(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `id="tag-filter-container"`) {
		t.Error("panel missing from output")
	}
}

func TestRunOnce_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := tagfilter.DefaultConfig()

	err := runOnce(ctx, quiet(), cfg, options{url: "https://example.com/"}, io.Discard)
	if !errors.Is(err, tagfilter.ErrNotTriggered) {
		t.Errorf("expected ErrNotTriggered, got %v", err)
	}
	if err := runOnce(ctx, quiet(), cfg, options{file: writePage(t), mode: "xor"}, io.Discard); err == nil {
		t.Error("expected invalid mode error")
	}
	if err := runOnce(ctx, quiet(), cfg, options{file: writePage(t), format: "pdf"}, io.Discard); err == nil {
		t.Error("expected unknown format error")
	}
}
