// Package server exposes the extracted model over a JSON HTTP API. The
// server holds the result of the most recent scan behind a read-write
// mutex; in watch mode the engine's watcher replaces it whenever the
// source directory changes. A failed rescan keeps the last good model
// available and surfaces the failure through /healthz and
// /api/diagnostics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/efscan/internal/engine"
)

// Server is the model API server.
type Server struct {
	engine *engine.Engine
	port   int
	watch  bool
	logger *slog.Logger

	mu        sync.RWMutex
	latest    *engine.ScanResult
	lastErr   error
	updatedAt time.Time
}

// Config holds configuration for the API server.
type Config struct {
	Engine *engine.Engine
	Port   int
	Watch  bool
	Logger *slog.Logger
}

// New creates a new API server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine: cfg.Engine,
		port:   cfg.Port,
		watch:  cfg.Watch,
		logger: logger,
	}
}

// Run starts the API server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server",
		"addr", fmt.Sprintf("http://localhost:%d", s.port),
		"watch", s.watch)

	eg, egctx := errgroup.WithContext(ctx)

	if s.watch {
		// The watcher runs the initial scan itself and then rescans on
		// every change.
		eg.Go(func() error {
			err := s.engine.Watch(egctx, engine.ScanOptions{}, s.record)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		s.refresh(ctx)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Handler builds the route tree. Split out from Run so tests can drive
// the API without a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Get("/model", s.handleModel)
		api.Get("/tables", s.handleTables)
		api.Get("/tables/{name}", s.handleTable)
		api.Get("/graph", s.handleGraph)
		api.Get("/diagnostics", s.handleDiagnostics)
	})
	return r
}

// refresh runs one scan and records the outcome.
func (s *Server) refresh(ctx context.Context) {
	result, err := s.engine.Scan(ctx, engine.ScanOptions{})
	s.record(result, err)
}

// record stores a scan outcome. A failure keeps the previous model so
// the API stays useful while the sources are broken.
func (s *Server) record(result *engine.ScanResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = err
		s.logger.Warn("scan failed", "error", err)
		return
	}
	s.latest = result
	s.lastErr = nil
	s.updatedAt = time.Now()
}

func (s *Server) snapshot() (*engine.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.lastErr
}
