// Package web provides a simple web UI for browsing call history.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/railguard/railguard/internal/db"
)

// Server provides the web UI handlers and state.
type Server struct {
	store *db.Store
}

// NewServer creates a new web server.
func NewServer(store *db.Store) (*Server, error) {
	return &Server{store: store}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /calls/{id}", s.handleCall)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	calls, err := s.store.ListCalls(r.Context(), 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, calls); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type callView struct {
	Call     db.CallRecord
	Attempts []attemptView
	Events   []db.Event
}

type attemptView struct {
	Index     int
	StartedAt string
	Prompt    string
	RawOutput string
	Issues    []string
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	call, err := s.store.GetCall(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	attempts, err := s.store.ListAttempts(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	events, err := s.store.ListEvents(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	view := callView{Call: call, Events: events}
	for _, a := range attempts {
		av := attemptView{
			Index:     a.AttemptIndex + 1,
			StartedAt: a.StartedAt,
			Prompt:    a.Prompt,
			RawOutput: a.RawOutput,
		}
		if a.IssuesJSON != "" {
			_ = json.Unmarshal([]byte(a.IssuesJSON), &av.Issues)
		}
		view.Attempts = append(view.Attempts, av)
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/call.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
