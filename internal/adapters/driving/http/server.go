package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driving"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

// DefaultMaxPayloadBytes is the request body limit of the capture endpoint
const DefaultMaxPayloadBytes = 10 * 1024 * 1024

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	cfg        Config
	logger     *slog.Logger

	// Services
	engineService    driving.EngineService
	searchService    driving.SearchService
	docService       driving.DocumentService
	exclusionService driving.ExclusionService
	captureService   driving.CaptureService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)

	mu       sync.Mutex
	listener net.Listener
}

// Config holds server configuration
type Config struct {
	Host string
	Port int

	// PortRange is how many consecutive ports from Port are tried
	PortRange int

	MaxPayloadBytes int64
	Version         string
	Logger          *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            3000,
		PortRange:       11,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		Version:         "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	engineService driving.EngineService,
	searchService driving.SearchService,
	docService driving.DocumentService,
	exclusionService driving.ExclusionService,
	captureService driving.CaptureService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	if cfg.PortRange <= 0 {
		cfg.PortRange = 1
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		cfg:              cfg,
		logger:           logger,
		engineService:    engineService,
		searchService:    searchService,
		docService:       docService,
		exclusionService: exclusionService,
		captureService:   captureService,
		db:               db,
		redisClient:      redisClient,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", telemetry.Handler())

	// Browser capture endpoint
	s.router.HandleFunc("POST /documents", s.handleCapture)

	// Document endpoints
	s.router.HandleFunc("POST /api/v1/documents", s.handleIngest)
	s.router.HandleFunc("GET /api/v1/documents/recent", s.handleRecentDocuments)
	s.router.HandleFunc("GET /api/v1/documents/exists", s.handleDocumentExists)
	s.router.HandleFunc("GET /api/v1/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("PUT /api/v1/documents/{id}", s.handleUpdateDocument)
	s.router.HandleFunc("DELETE /api/v1/documents/{id}", s.handleDeleteDocument)
	s.router.HandleFunc("GET /api/v1/documents/{id}/chunks", s.handleGetDocumentChunks)

	// Search endpoints
	s.router.HandleFunc("POST /api/v1/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/search/more", s.handleLoadMore)

	// Exclusion rules and bookmark folders
	s.router.HandleFunc("GET /api/v1/exclusions", s.handleGetExclusions)
	s.router.HandleFunc("PUT /api/v1/exclusions", s.handleSaveExclusions)
	s.router.HandleFunc("GET /api/v1/bookmarks/folders", s.handleListFolders)

	// Engine
	s.router.HandleFunc("GET /api/v1/stats", s.handleStats)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware([]string{"*"}).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRequestIDMiddleware().Handler(h)
	return h
}

// Listen binds the first free port in [Port, Port+PortRange)
func (s *Server) Listen() (net.Listener, error) {
	var lastErr error
	for port := s.cfg.Port; port < s.cfg.Port+s.cfg.PortRange; port++ {
		addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			s.mu.Lock()
			s.listener = ln
			s.mu.Unlock()
			return ln, nil
		}
		lastErr = err
		s.logger.Debug("port unavailable", "addr", addr, "error", err)
	}
	return nil, fmt.Errorf("no available port in range %d-%d: %w",
		s.cfg.Port, s.cfg.Port+s.cfg.PortRange-1, lastErr)
}

// Addr returns the bound address, or "" before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
