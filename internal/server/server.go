// Package server exposes extraction and archiving over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wesm/chatzip/internal/config"
	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/export"
)

const (
	extractCacheSize    = 256
	defaultWriteTimeout = 30 * time.Second
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server for the REST API.
type Server struct {
	mu       sync.RWMutex
	cfg      config.Config
	db       *db.DB
	exporter *export.Exporter
	mux      *http.ServeMux
	httpSrv  *http.Server
	version  VersionInfo
	cache    *lru.Cache[string, extractResponse]
}

// New creates a new Server. database may be nil, in which case
// archives are not recorded and the history routes report 503.
func New(
	cfg config.Config, database *db.DB, opts ...Option,
) (*Server, error) {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	cache, err := lru.New[string, extractResponse](extractCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating extract cache: %w", err)
	}

	exOpts := []export.Option{export.WithPrefix(cfg.ArchivePrefix)}
	if database != nil {
		exOpts = append(exOpts, export.WithDB(database))
	}
	exporter, err := export.New(exOpts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		db:       database,
		exporter: exporter,
		mux:      http.NewServeMux(),
		cache:    cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithExporter replaces the exporter used by the archive route.
// Nil is ignored.
func WithExporter(e *export.Exporter) Option {
	return func(s *Server) {
		if e != nil {
			s.exporter = e
		}
	}
}

func (s *Server) routes() {
	s.mux.Handle("POST /api/v1/extract", s.withTimeout(s.handleExtract))
	// Archive: not timeout-wrapped so the ZIP is not buffered
	// twice.
	s.mux.HandleFunc("POST /api/v1/archive", s.handleArchive)
	s.mux.Handle("GET /api/v1/exports", s.withTimeout(s.handleListExports))
	s.mux.Handle("GET /api/v1/exports/{id}", s.withTimeout(s.handleGetExport))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}
