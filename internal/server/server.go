// Package server is the thin external HTTP surface (§6): health, job
// inspection, and the progress-event websocket, mounted on a fixed, small
// route table (no browser-facing dashboard).
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/gateway"
	"github.com/velocitycmdb/velocitycmdb/internal/jobs"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/internal/version"
)

// Server is the velocitycmdb HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *jobs.Registry
	jobRepo    store.JobRepository
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a Server bound to addr, serving job status from repo and
// live progress from registry.
func New(addr string, registry *jobs.Registry, repo store.JobRepository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: registry,
		jobRepo:  repo,
		logger:   logger,
		mux:      mux,
	}

	s.registerCoreRoutes()
	return s
}

func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/v1/jobs/{id}/ws", gateway.Handler(s.registry))
}

// Start begins serving HTTP requests. Blocks until Shutdown or a bind error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-VelocityCMDB-Version", version.Short())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "velocitycmdb",
		"version": version.Map(),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	records, err := s.jobRepo.List(r.Context())
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.jobRepo.Get(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			NotFound(w, "no such job", r.URL.Path)
			return
		}
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
