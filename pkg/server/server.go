// Package server exposes the configuration generator over HTTP so the form
// can be filled in from a browser.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mscrnt/emgd_confgen/pkg/catalog"
	"github.com/mscrnt/emgd_confgen/pkg/render"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

// Server represents the generator server
type Server struct {
	config     Config
	tables     *catalog.Tables
	templates  render.Templates
	registry   *timing.Registry
	system     *render.SystemInfo
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer creates a new generator server. Tables and templates are loaded
// once; restart the server to pick up edits.
func NewServer(config Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(os.Stdout, "[serve] ", log.LstdFlags)
	if config.LogFile != "" {
		logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = log.New(logFile, "[serve] ", log.LstdFlags)
	}

	tables, err := catalog.LoadDir(config.TablesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	templates, err := render.LoadTemplates(config.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	server := &Server{
		config:    config,
		tables:    tables,
		templates: templates,
		registry:  timing.DefaultRegistry(),
		logger:    logger,
	}

	if config.HostInfo {
		info, err := render.CollectSystemInfo()
		if err != nil {
			logger.Printf("Host info unavailable: %v", err)
		} else {
			server.system = &info
		}
	}

	tlsConfig, err := config.LoadTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS config: %w", err)
	}

	server.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      server.Handler(),
		TLSConfig:    tlsConfig,
		ErrorLog:     logger,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.loggingMiddleware(indexHandler))
	mux.HandleFunc("/health", s.loggingMiddleware(healthHandler))
	mux.HandleFunc("/generate", s.loggingMiddleware(s.generateHandler))
	mux.HandleFunc("/timing", s.loggingMiddleware(s.timingListHandler))
	mux.HandleFunc("/timing/translate", s.loggingMiddleware(s.translateHandler))
	mux.HandleFunc("/presets", s.loggingMiddleware(s.presetsHandler))
	mux.HandleFunc("/controls", s.loggingMiddleware(s.controlsHandler))
	mux.HandleFunc("/attributes", s.loggingMiddleware(s.attributesHandler))
	return mux
}

// Start starts the server and blocks until it is shut down
func (s *Server) Start() error {
	var err error
	if s.config.TLSEnabled() {
		mode := "TLS"
		if s.config.CAFile != "" {
			mode = "mTLS"
		}
		s.logger.Printf("Starting generator server on %s with %s", s.config.Addr, mode)
		// Certificates are already loaded in the TLS config
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		s.logger.Printf("Starting generator server on http://%s", s.config.Addr)
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("Shutting down generator server...")
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs incoming requests
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientCert := "none"
		if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
			clientCert = r.TLS.PeerCertificates[0].Subject.CommonName
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(wrapped, r)

		s.logger.Printf("%s %s %d %s client=%s duration=%s",
			r.Method,
			r.URL.Path,
			wrapped.statusCode,
			r.RemoteAddr,
			clientCert,
			time.Since(start),
		)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
