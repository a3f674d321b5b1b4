// Package server exposes the dismantling engine over HTTP.
//
// The API is a thin wrapper around the pipeline runner so host processes
// that cannot link the Go library (notebooks, scripts, other services) can
// still run strategies remotely:
//
//	POST /api/dismantle      edge list + options in, result out
//	GET  /api/runs           list persisted runs (when a store is configured)
//	GET  /api/runs/{id}      fetch one persisted run
//	GET  /healthz            liveness probe
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/pipeline"
	"github.com/matzehuels/dismantle/pkg/results"
)

// maxBodyBytes caps request bodies; edge lists beyond this belong in a file
// next to the server, not in an HTTP request.
const maxBodyBytes = 256 << 20

// Server handles HTTP requests against a shared pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	store    results.Store // nil disables the runs endpoints
	defaults pipeline.Options
	logger   *log.Logger
}

// New creates a server. defaults supplies option values for request fields
// the client leaves unset; store may be nil.
func New(runner *pipeline.Runner, store results.Store, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:   runner,
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/dismantle", s.handleDismantle)
		if s.store != nil {
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
		}
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps engine error codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidEdge,
		errors.ErrCodeInvalidOptions, errors.ErrCodeInvalidStrategy,
		errors.ErrCodeInvalidSequence:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeResourceExhausted:
		status = http.StatusUnprocessableEntity
	case "":
		code = errors.ErrCodeInternal
	}

	var resp errorResponse
	resp.Error.Code = string(code)
	resp.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
