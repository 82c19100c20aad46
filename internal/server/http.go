package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/streamfusion/internal/config"
	"github.com/example/streamfusion/internal/runstore"
)

// Version is the server version exposed via /healthz.
const Version = "0.1.0"

// Server hosts the stream-fusion run API on top of chi.
type Server struct {
	router     chi.Router
	startedAt  time.Time
	version    string
	httpServer *http.Server
}

// New wires the HTTP routes and returns a Server. cfg supplies the
// registry of named pipeline definitions the /v1/runs endpoint accepts.
func New(cfg *config.Config, store *runstore.Store) *Server {
	started := time.Now().UTC()
	h := NewHandler(cfg, store, started, Version)
	return &Server{router: RouterFor(h), startedAt: started, version: Version}
}

// RouterFor builds the chi router for an already-constructed Handler.
// Exposed so tests can exercise handler behavior (including custom
// startedAt/version values) without going through New's fixed
// Version/time.Now() wiring.
func RouterFor(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	h.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Handler exposes the underlying http.Handler for embedding or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts listening on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	s.httpServer = srv
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the underlying HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
