// Package server exposes the registry over HTTP for the kvtools frontend.
//
// Routes:
//
//	GET  /healthz
//	GET  /registry/index           last published index, from memory
//	POST /registry/refresh         rescan the root and publish the index
//	POST /registry/peek            {file_name|path, key} -> {ok, value}
//	GET  /registry/image           ?file=&key=&ext= -> image bytes
//	GET  /nodes                    graph node manifest
//
// The /kvtools/* aliases serve the paths the web extension calls.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kvtools/pkg/nodes"
	"github.com/matzehuels/kvtools/pkg/registry"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8188"

// Config holds server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Server serves the registry endpoints.
type Server struct {
	cfg       Config
	logger    *log.Logger
	scanner   *registry.Scanner
	publisher registry.Publisher
	reader    *registry.Reader
	resolver  *registry.Resolver
	nodes     *nodes.Registry

	refreshMu sync.Mutex

	mu    sync.RWMutex
	index *registry.Index
}

// New creates a server over the registry described by reg. Refreshes
// publish through publisher.
func New(cfg Config, reg registry.Config, publisher registry.Publisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:       cfg.withDefaults(),
		logger:    logger,
		scanner:   registry.NewScanner(reg),
		publisher: publisher,
		reader:    registry.NewReader(reg),
		resolver:  registry.NewResolver(reg),
		nodes:     nodes.Default(reg),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router()
}

func (s *Server) router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/nodes", s.handleNodes)

	r.Route("/registry", func(r chi.Router) {
		r.Get("/index", s.handleIndex)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/peek", s.handlePeek)
		r.Get("/image", s.handleImage)
	})

	r.Route("/kvtools", func(r chi.Router) {
		r.Post("/refresh_registry", s.handleRefresh)
		r.Post("/peek", s.handlePeek)
		r.Get("/image", s.handleImage)
	})

	return r
}

// Refresh rescans the root, publishes the index and keeps it in memory.
// Concurrent calls are serialized.
func (s *Server) Refresh(ctx context.Context) (*registry.ScanResult, string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	res, written, err := registry.Refresh(ctx, s.scanner, s.publisher)
	if err != nil {
		return res, "", err
	}
	s.mu.Lock()
	s.index = res.Index
	s.mu.Unlock()

	for _, sk := range res.Skipped {
		s.logger.Warn("skipped store", "file", sk.Name, "reason", sk.Reason)
	}
	s.logger.Info("registry refreshed", "files", len(res.Index.Files), "written", written)
	return res, written, nil
}

// Index returns the index of the last successful refresh, or nil.
func (s *Server) Index() *registry.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Run refreshes the registry once and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if _, _, err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial registry refresh failed", "err", err)
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
