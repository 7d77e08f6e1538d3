package tagview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/hameln/tagfilter"
)

// RegisterMCP exposes the sessions as MCP tools.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	s.registerOpen(srv)
	s.registerAction(srv, "tagfilter_add_tag", "Add a tag to the session's filter and re-filter the rows", tagfilter.ActionAdd, true)
	s.registerAction(srv, "tagfilter_remove_tag", "Remove a tag from the session's filter and re-filter the rows", tagfilter.ActionRemove, true)
	s.registerAction(srv, "tagfilter_clear", "Remove every tag from the session's filter; the mode is kept", tagfilter.ActionClear, false)
	s.registerAction(srv, "tagfilter_toggle_mode", "Switch the session's match mode between AND and OR", tagfilter.ActionMode, false)
	s.registerState(srv)
	s.registerMarkdown(srv)
	s.registerClose(srv)
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
	Tag       string `json:"tag"`
}

var sessionIDProp = map[string]any{"type": "string", "description": "Session ID returned by tagfilter_open"}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers fn as tool. fn receives the decoded arguments and its
// result is returned as JSON text. Argument and endpoint failures are
// reported as tool errors, not protocol errors.
func addTool[T any](srv *mcp.Server, tool *mcp.Tool, fn func(ctx context.Context, args *T) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args T
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := fn(ctx, &args)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func (s *Server) registerOpen(srv *mcp.Server) {
	type req struct {
		URL string `json:"url"`
	}
	tool := &mcp.Tool{
		Name:        "tagfilter_open",
		Description: "Open a Hameln ranking or search listing and start a tag filter session on it",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Listing URL, e.g. https://syosetu.org/?mode=rank"},
		}, []string{"url"}),
	}
	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		sess, err := s.Open(ctx, p.URL)
		if err != nil {
			return nil, err
		}
		return s.State(sess.ID)
	})
}

func (s *Server) registerAction(srv *mcp.Server, name, desc string, kind tagfilter.ActionKind, withTag bool) {
	props := map[string]any{"session_id": sessionIDProp}
	required := []string{"session_id"}
	if withTag {
		props["tag"] = map[string]any{"type": "string", "description": "Tag name as shown on the listing"}
		required = append(required, "tag")
	}
	tool := &mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: inputSchema(props, required),
	}
	addTool(srv, tool, func(_ context.Context, p *sessionArgs) (any, error) {
		a := tagfilter.Action{Kind: kind}
		if withTag {
			a.Tag = p.Tag
		}
		return s.Apply(p.SessionID, &a)
	})
}

func (s *Server) registerState(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tagfilter_state",
		Description: "Selected tags, mode and per-row visibility of a session",
		InputSchema: inputSchema(map[string]any{"session_id": sessionIDProp}, []string{"session_id"}),
	}
	addTool(srv, tool, func(_ context.Context, p *sessionArgs) (any, error) {
		return s.State(p.SessionID)
	})
}

func (s *Server) registerMarkdown(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tagfilter_markdown",
		Description: "The rows currently visible in a session, as markdown",
		InputSchema: inputSchema(map[string]any{"session_id": sessionIDProp}, []string{"session_id"}),
	}
	addTool(srv, tool, func(_ context.Context, p *sessionArgs) (any, error) {
		md, err := s.Markdown(p.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]string{"markdown": md}, nil
	})
}

func (s *Server) registerClose(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tagfilter_close",
		Description: "End a session and discard its selection",
		InputSchema: inputSchema(map[string]any{"session_id": sessionIDProp}, []string{"session_id"}),
	}
	addTool(srv, tool, func(_ context.Context, p *sessionArgs) (any, error) {
		if err := s.Close(p.SessionID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "closed"}, nil
	})
}
