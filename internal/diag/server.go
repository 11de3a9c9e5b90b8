package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chatsync/internal/chat/repository"
	"chatsync/internal/config"
)

// SummarySource provides the conversation list for the session user.
type SummarySource func(ctx context.Context) ([]repository.ConversationSummary, error)

// Server is the local debug HTTP surface. It binds on loopback-ish ports in
// development and is disabled entirely via config in production builds.
type Server struct {
	recorder  *Recorder
	summaries SummarySource
	srv       *http.Server
}

func NewServer(cfg *config.Config, recorder *Recorder, summaries SummarySource) *Server {
	s := &Server{
		recorder:  recorder,
		summaries: summaries,
	}
	s.srv = &http.Server{
		Addr:         ":" + cfg.Diagnostics.Port,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/debug/errors", s.handleErrors).Methods(http.MethodGet)
	r.HandleFunc("/debug/conversations", s.handleConversations).Methods(http.MethodGet)
	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": s.recorder.Recent(),
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.summaries(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": summaries,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
