// Package exchangetest provides an in-memory Template Exchange API for tests.
package exchangetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   []byte
}

// Server is an in-memory Template Exchange API served over httptest.
// Records are keyed by session ID and type; a POST replaces the stored record.
type Server struct {
	srv    *httptest.Server
	apiKey string

	mu        sync.Mutex
	templates map[templateKey]map[string]any
	requests  []Request
	failures  []failure
}

type templateKey struct {
	sessionID string
	typ       string
}

type failure struct {
	status int
	body   string
}

// NewServer starts a server accepting only apiKey.
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:    apiKey,
		templates: make(map[templateKey]map[string]any),
	}
	r := chi.NewRouter()
	r.Use(s.record, s.injectFailure, s.authenticate)
	r.Get("/api/templates/{sessionId}", s.handleGet)
	r.Post("/api/templates", s.handlePost)
	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Seed stores a record directly. It must contain string sessionId and type.
func (s *Server) Seed(record map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, _ := record["sessionId"].(string)
	typ, _ := record["type"].(string)
	s.templates[templateKey{sid, typ}] = record
}

// FailNext makes the next request, after recording, answer with status and body.
// Calls queue up in order.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, body: body})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			APIKey: r.Header.Get("x-api-key"),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if f != nil {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ == "" {
		typ = "handoff"
	}
	key := templateKey{sessionID: chi.URLParam(r, "sessionId"), typ: typ}

	s.mu.Lock()
	rec, ok := s.templates[key]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Template not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{"error": "expected application/json"})
		return
	}
	var rec map[string]any
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON"})
		return
	}
	sid, _ := rec["sessionId"].(string)
	typ, _ := rec["type"].(string)
	content, _ := rec["content"].(string)
	if sid == "" || content == "" || (typ != "handoff" && typ != "summary") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "sessionId, type and content are required"})
		return
	}

	s.mu.Lock()
	s.templates[templateKey{sid, typ}] = rec
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
