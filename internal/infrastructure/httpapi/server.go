// Package httpapi serves the live run status over HTTP for local UIs. It is
// one subscriber among any others; the tracker stays the source of truth and
// this server only republishes the broadcasts it receives.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/domain/entity"
)

var _ output.StatusSubscriber = (*Server)(nil)

type Server struct {
	mu     sync.RWMutex
	latest entity.StatusBroadcast
	done   bool

	srv    *http.Server
	logger output.LoggerPort
}

// NewServer builds the status server for addr. Start it with ListenAndServe.
func NewServer(addr string, logger output.LoggerPort) *Server {
	s := &Server{logger: logger}

	requestLogger := httplog.NewLogger("signup-agent", httplog.Options{JSON: true, Concise: true})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(requestLogger))
	r.Use(middleware.Recoverer)
	r.Get("/api/run/status", s.handleStatus)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.srv = &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Notify implements StatusSubscriber; called from the orchestrator's loop.
func (s *Server) Notify(b entity.StatusBroadcast) {
	s.mu.Lock()
	s.latest = b
	s.done = b.Action == entity.ActionBulkComplete
	s.mu.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	payload := s.latest
	done := s.done
	s.mu.RUnlock()

	if payload.Action == "" {
		http.Error(w, `{"error":"no run yet"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		entity.StatusBroadcast
		Done bool `json:"done"`
	}{payload, done})
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("status server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
