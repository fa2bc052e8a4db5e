// Package server exposes projects, entities, parse jobs and overrides over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"ReputationScanner/internal/app"
)

const shutdownTimeout = 10 * time.Second

// Server serves the REST API on top of a wired application.
type Server struct {
	app        *app.Application
	validator  *validator.Validate
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
	// pollInterval bounds how stale an event stream can get when events are dropped.
	pollInterval time.Duration
}

// New builds the router for application and binds it to addr.
func New(application *app.Application, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = application.Logger()
	}
	s := &Server{
		app:          application,
		validator:    validator.New(),
		logger:       logger.With("component", "http"),
		pollInterval: 500 * time.Millisecond,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Post("/projects/{projectID}/entities", s.handleCreateEntity)
		r.Get("/projects/{projectID}/entities/{entityID}", s.handleGetEntity)
		r.Post("/projects/{projectID}/entities/{entityID}/parse", s.handleStartParse)
		r.Get("/projects/{projectID}/entities/{entityID}/latest", s.handleLatestParsing)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Get("/jobs/{jobID}/events", s.handleJobEvents)

		r.Put("/parsings/{parsingID}/results", s.handleOverride)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
