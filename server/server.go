package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/newsdigest/pkg/assembly"
	"github.com/umputun/newsdigest/pkg/cache"
	"github.com/umputun/newsdigest/pkg/domain"
	"github.com/umputun/newsdigest/pkg/pipeline"
)

//go:generate moq -out mocks/pipeline.go -pkg mocks -skip-ensure -fmt goimports . Pipeline
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . History
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore
//go:generate moq -out mocks/digest.go -pkg mocks -skip-ensure -fmt goimports . Digest
//go:generate moq -out mocks/cache_stats.go -pkg mocks -skip-ensure -fmt goimports . CacheStats

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Server represents HTTP server instance
type Server struct {
	Config
	pipeline Pipeline
	runs     RunStore
	history  History
	digest   Digest
	cache    CacheStats

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
	baseCtx    context.Context // parent of runs triggered over http
}

// Config defines server settings
type Config struct {
	Listen  string
	Timeout time.Duration
	Version string
	Debug   bool
}

// Pipeline reports the state of the pipeline and starts on-demand runs
type Pipeline interface {
	State() domain.Stage
	LastReport() *domain.RunReport
	Start(ctx context.Context) error
}

// RunStore lists stored run reports
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// Digest provides the latest assembled digest
type Digest interface {
	Latest() ([]byte, error)
}

// History counts delivered items
type History interface {
	Count(ctx context.Context) (int64, error)
}

// CacheStats reports summary cache counters
type CacheStats interface {
	Stats() cache.Stats
}

// Params for the server, History, Digest and Cache are optional
type Params struct {
	Config
	Pipeline Pipeline
	Runs     RunStore
	History  History
	Digest   Digest
	Cache    CacheStats
}

// New initializes a new server instance
func New(p Params) *Server {
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	s := &Server{
		Config:   p.Config,
		pipeline: p.Pipeline,
		runs:     p.Runs,
		history:  p.History,
		digest:   p.Digest,
		cache:    p.Cache,
		router:   routegroup.New(http.NewServeMux()),
		baseCtx:  context.Background(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.Listen)

	s.lock.Lock()
	s.baseCtx = ctx
	s.httpServer = &http.Server{
		Addr:              s.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.Timeout,
		ReadTimeout:       s.Timeout,
		WriteTimeout:      s.Timeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newsdigest", "umputun", s.Version))
	s.router.Use(rest.Ping)

	if s.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /runs", s.runsHandler)
		r.HandleFunc("POST /run", s.runHandler)
	})

	s.router.HandleFunc("GET /rss", s.rssHandler)
}

// statusHandler returns server status with the pipeline state and the last run
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.Version,
		"time":    time.Now().UTC(),
		"state":   s.pipeline.State(),
	}
	if last := s.pipeline.LastReport(); last != nil {
		brief := *last
		brief.Items = nil
		status["last_run"] = brief
	}
	if s.history != nil {
		n, err := s.history.Count(r.Context())
		if err != nil {
			log.Printf("[WARN] failed to count delivered items: %v", err)
		} else {
			status["delivered"] = n
		}
	}
	if s.cache != nil {
		status["cache"] = s.cache.Stats()
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// runsHandler lists stored run reports, newest first
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			RenderError(w, r, fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] failed to list runs: %v", err)
		RenderError(w, r, errors.New("failed to list runs"), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []domain.RunReport{}
	}
	RenderJSON(w, r, http.StatusOK, runs)
}

// runHandler starts a pipeline run in background, 409 if a run is already active
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	ctx := s.baseCtx
	s.lock.Unlock()

	if err := s.pipeline.Start(ctx); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			RenderError(w, r, fmt.Errorf("%w, stage %s", err, s.pipeline.State()), http.StatusConflict)
			return
		}
		log.Printf("[WARN] failed to start requested run: %v", err)
		RenderError(w, r, errors.New("failed to start run"), http.StatusInternalServerError)
		return
	}
	log.Print("[INFO] pipeline run requested over http")
	RenderJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// rssHandler serves the latest digest
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	if s.digest == nil {
		RenderError(w, r, errors.New("rss digest is disabled"), http.StatusNotFound)
		return
	}
	data, err := s.digest.Latest()
	if errors.Is(err, assembly.ErrNoDigest) {
		RenderError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load digest: %v", err)
		http.Error(w, "Failed to load RSS digest", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
