package tagview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/hameln/tagfilter"
)

const maxRequestBody = 16 << 10

// Handler returns the HTTP API and viewer.
//
//	GET    /health
//	GET    /                        open form
//	POST   /sessions                open a listing (form field or JSON "url")
//	GET    /sessions/{id}           filtered page, controls as forms
//	DELETE /sessions/{id}           end the session
//	POST   /sessions/{id}/close     end the session from a form
//	POST   /sessions/{id}/actions   run a control (form or JSON tagfilter.Action)
//	GET    /sessions/{id}/state     JSON State
//	GET    /sessions/{id}/markdown  visible rows as markdown
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(headToGet)
	r.Use(securityHeaders)
	r.Use(maxBody(maxRequestBody))
	r.Use(s.traceID)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Len()})
	})
	r.Get("/", s.handleIndex)
	r.Post("/sessions", s.handleOpen)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Delete("/", s.handleClose)
		r.Post("/close", s.handleClose)
		r.Post("/actions", s.handleAction)
		r.Get("/state", s.handleState)
		r.Get("/markdown", s.handleMarkdown)
	})
	return r
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="ja"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>タグフィルター</title>
<style>
body{font-family:system-ui,sans-serif;max-width:720px;margin:2rem auto;padding:0 1rem;color:#222}
input[type=url]{width:100%;padding:.4rem;box-sizing:border-box}
.hint{font-size:.85rem;color:#666}
</style></head><body>
<h1>タグフィルター</h1>
<form method="post" action="/sessions">
<p><input type="url" name="url" required placeholder="https://{{.Host}}/?mode=rank"></p>
<p class="hint">ランキングまたは検索結果のURLを入力してください。</p>
<button type="submit">開く</button>
</form>
<p class="hint">{{.Sessions}} セッション</p>
</body></html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, struct {
		Host     string
		Sessions int
	}{s.cfg.Trigger.Host, s.Len()}); err != nil {
		s.requestLogger(r.Context()).Warn("tagview: index", "error", err)
	}
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	asJSON := isJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.URL = r.PostFormValue("url")
	}

	sess, err := s.Open(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}

	if !asJSON {
		http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
		return
	}
	st, err := s.State(sess.ID)
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = sess.do(s.now(), func(p *tagfilter.Page) error {
		return renderView(&buf, sess, p)
	})
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var a tagfilter.Action
	asJSON := isJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			s.fail(w, r, err, http.StatusBadRequest)
			return
		}
	} else if v := r.PostFormValue(controlField); v != "" {
		a = decodeControl(v)
	} else {
		a = tagfilter.Action{
			Kind: tagfilter.ActionKind(r.PostFormValue("action")),
			Tag:  r.PostFormValue("tag"),
		}
	}

	st, err := s.Apply(id, &a)
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	s.requestLogger(r.Context()).Debug("tagview: action",
		"session", id, "action", a.Kind, "tag", a.Tag, "visible", st.Visible)

	if !asJSON {
		http.Redirect(w, r, sessionPath(id), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.State(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := s.Markdown(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.Close(chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	if r.Method == http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps known errors to a status and writes them as JSON. Anything
// else gets fallback.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	code := fallback
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, tagfilter.ErrNotTriggered), errors.Is(err, tagfilter.ErrUnknownAction):
		code = http.StatusBadRequest
	case errors.Is(err, ErrTooManySessions):
		code = http.StatusServiceUnavailable
	case errors.Is(err, tagfilter.ErrPollExhausted), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	case errors.As(err, &tooLarge):
		code = http.StatusRequestEntityTooLarge
	}

	logger := s.requestLogger(r.Context())
	if code >= 500 {
		logger.Warn("tagview: request failed", "status", code, "error", err)
	} else {
		logger.Debug("tagview: request refused", "status", code, "error", err)
	}
	writeError(w, code, err)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
