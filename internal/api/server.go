// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/newthinker/relay/internal/api/handler/api"
	"github.com/newthinker/relay/internal/api/job"
	"github.com/newthinker/relay/internal/api/middleware"
	"github.com/newthinker/relay/internal/metrics"
	"github.com/newthinker/relay/internal/storage/history"
)

// Server represents the relay HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
	metrics    *metrics.Registry
	stopSweep  chan struct{}
	stopOnce   sync.Once
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MaxJobs     int
	JobTTL      time.Duration
	MetricsPath string
}

// Dependencies holds the collaborators the server routes requests to.
type Dependencies struct {
	App     apihandler.CompletionApp
	History history.Store
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	maxJobs := cfg.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 100
	}

	s := &Server{
		logger:    logger,
		mux:       mux,
		jobs:      job.NewStore(maxJobs, cfg.JobTTL),
		metrics:   deps.Metrics,
		stopSweep: make(chan struct{}),
	}

	s.setupRoutes(cfg, deps)

	handler := metrics.LoggingMiddleware(logger)(mux)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Completions can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)

	completions := apihandler.NewCompletionsHandler(deps.App, s.jobs)
	hist := apihandler.NewHistoryHandler(deps.History)

	s.mux.Handle("POST /v1/completions", auth(http.HandlerFunc(completions.Create)))
	s.mux.Handle("POST /v1/completions/async", auth(http.HandlerFunc(completions.CreateAsync)))
	s.mux.Handle("GET /v1/jobs/{id}", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		completions.GetJob(w, r, r.PathValue("id"))
	})))
	s.mux.Handle("GET /v1/completions/recent", auth(http.HandlerFunc(hist.List)))
	s.mux.Handle("GET /v1/completions/{id}", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hist.GetByID(w, r, r.PathValue("id"))
	})))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Jobs exposes the async job store.
func (s *Server) Jobs() *job.Store {
	return s.jobs
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	go s.sweepJobs()
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// sweepJobs drops expired jobs and keeps the active-jobs gauge current.
func (s *Server) sweepJobs() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if dropped := s.jobs.Sweep(); dropped > 0 {
				s.logger.Debug("swept expired jobs", zap.Int("dropped", dropped))
			}
			if s.metrics != nil {
				s.metrics.SetJobsActive("completion", s.jobs.Active())
			}
		case <-s.stopSweep:
			return
		}
	}
}

// Shutdown gracefully shuts down the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.stopOnce.Do(func() { close(s.stopSweep) })
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
