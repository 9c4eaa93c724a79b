package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowbuilder/pkg/buildinfo"
	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/editor"
	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

// =============================================================================
// Responses
// =============================================================================

type healthResponse struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Timestamp string         `json:"timestamp"`
	Uptime    string         `json:"uptime"`
	Build     buildinfo.Info `json:"build"`
}

type listResponse struct {
	Graphs []store.Info `json:"graphs"`
}

type saveResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
	Dropped int    `json:"dropped"`
}

type checkResponse struct {
	OK     bool          `json:"ok"`
	Issues []graph.Issue `json:"issues"`
}

type snapshotResponse struct {
	Snapshot string `json:"snapshot"`
	Hash     string `json:"hash"`
	Dropped  int    `json:"dropped"`
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  ferrors.Code `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   "flowbuilder",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Build:     buildinfo.Get(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, listResponse{Graphs: infos})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := decodePayload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess := s.session(editor.Options{})
	defer sess.Close()
	dropped, err := sess.Load(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	saved := sess.Payload()
	if err := s.store.Save(r.Context(), id, saved); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("draft saved", "id", id, "nodes", len(saved.Nodes), "dropped", dropped)
	writeJSON(w, http.StatusOK, saveResponse{
		ID:      id,
		Name:    saved.Name,
		Nodes:   len(saved.Nodes),
		Edges:   len(saved.Edges),
		Dropped: dropped,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLayout arranges a stored draft and saves it back unless dry_run
// is set. The response is the arranged payload.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	opts := s.opts.Editor.Layout
	if d := q.Get("direction"); d != "" {
		dir, err := layout.ParseDirection(d)
		if err != nil {
			s.writeError(w, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "direction"))
			return
		}
		opts.Direction = dir
	}
	dryRun, _ := strconv.ParseBool(q.Get("dry_run"))

	p, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess := s.session(editor.Options{Layout: opts})
	defer sess.Close()
	if _, err := sess.Load(p); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.AutoLayout(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	out := sess.Payload()
	if !dryRun && sess.Dirty() {
		if err := s.store.Save(r.Context(), id, out); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCheck validates a stored draft. Reports are cached by snapshot
// and registry.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.store.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess := s.session(editor.Options{})
	defer sess.Close()
	if _, err := sess.Load(p); err != nil {
		s.writeError(w, err)
		return
	}

	key := s.keyer.CheckKey(cache.Hash([]byte(sess.Snapshot())), s.registryHash)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		w.Header().Set("X-Cache", "hit")
		writeRaw(w, http.StatusOK, data)
		return
	}

	report := sess.Check()
	resp := checkResponse{OK: report.OK(), Issues: report.Issues}
	if resp.Issues == nil {
		resp.Issues = []graph.Issue{}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		s.logger.Warn("check cache write failed", "err", err)
	}
	w.Header().Set("X-Cache", "miss")
	writeRaw(w, http.StatusOK, data)
}

// handleSnapshot returns the canonical snapshot of the posted payload.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	p, err := decodePayload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess := s.session(editor.Options{})
	defer sess.Close()
	dropped, err := sess.Load(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snap, Hash: cache.Hash([]byte(snap)), Dropped: dropped})
}

// =============================================================================
// Helpers
// =============================================================================

// session starts an editing session from the server template. Non-zero
// layout options in override replace the template's.
func (s *Server) session(override editor.Options) *editor.Session {
	opts := s.opts.Editor
	if override.Layout != (layout.Options{}) {
		opts.Layout = override.Layout
	}
	return editor.New(opts)
}

func decodePayload(r *http.Request) (graph.Payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return graph.Payload{}, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "read body")
	}
	if len(body) > maxBodyBytes {
		return graph.Payload{}, ferrors.New(ferrors.ErrCodeInvalidInput, "body exceeds %d bytes", maxBodyBytes)
	}
	p, err := graph.UnmarshalPayload(body)
	if err != nil {
		return graph.Payload{}, ferrors.Wrap(ferrors.ErrCodeInvalidGraph, err, "invalid payload")
	}
	return p, nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(code ferrors.Code) int {
	switch code.Class() {
	case ferrors.ClassInput:
		return http.StatusBadRequest
	case ferrors.ClassNotFound:
		return http.StatusNotFound
	case ferrors.ClassRejected:
		return http.StatusUnprocessableEntity
	case ferrors.ClassStorage:
		return http.StatusBadGateway
	case ferrors.ClassUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := ferrors.GetCode(err)
	status := statusFor(code)
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	msg := ferrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		if code == "" {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}
