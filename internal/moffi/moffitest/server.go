// Package moffitest provides an in-process fake of the Moffi API for tests.
package moffitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/example/moffi-scheduler/internal/moffi"
)

// Token is the bearer token Client installs and the server expects.
const Token = "test-token"

// Handler answers one request. The returned value is JSON-encoded unless it
// is nil.
type Handler func(r *http.Request, body []byte) (status int, response any)

// Call is a request the server received.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Decode unmarshals the request body into v.
func (c Call) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(c.Body, v); err != nil {
		t.Fatalf("decode %s %s body: %v", c.Method, c.Path, err)
	}
}

type Server struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]Handler
	calls  []Call
}

// New starts a fake API. It is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{routes: make(map[string]Handler)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root to pass to moffi.Options.
func (s *Server) BaseURL() string { return s.srv.URL + "/api" }

// Client returns a moffi.Client pointed at the fake, already holding Token.
func (s *Server) Client() *moffi.Client {
	c := moffi.New(moffi.Options{BaseURL: s.BaseURL()})
	c.SetToken(Token)
	return c
}

// Handle registers h for method and path (relative to the API root).
func (s *Server) Handle(method, path string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[strings.ToUpper(method)+" "+path] = h
}

// JSON registers a handler that always answers 200 with v.
func (s *Server) JSON(method, path string, v any) {
	s.Handle(method, path, func(*http.Request, []byte) (int, any) { return http.StatusOK, v })
}

// Calls returns the recorded requests for method and path. An empty path
// matches every path.
func (s *Server) Calls(method, path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Method == strings.ToUpper(method) && (path == "" || c.Path == path) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: path, Query: r.URL.Query(), Body: body})
	h, ok := s.routes[r.Method+" "+path]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "no route for "+r.Method+" "+path, http.StatusNotFound)
		return
	}
	if path != "/signin" && r.Header.Get("authorization") != "Bearer "+Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	status, resp := h(r, body)
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
	}
}
