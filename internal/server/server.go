// Package server provides the HTTP server for the byline web UI and JSON API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/logging"
	"github.com/spetersoncode/byline/internal/service"
)

// Config holds the server configuration.
type Config struct {
	// Port is the TCP port to listen on (default 18080).
	Port int

	// Host is the address to bind to (default "localhost").
	Host string

	// DB is the database connection.
	DB *sql.DB

	// Byline renders "time ago by author" for entries. Defaults to the
	// compact style.
	Byline *common.Byline

	// AutoOpenBrowser opens the browser on start if true.
	AutoOpenBrowser bool

	// Logger for server events and requests (optional).
	Logger *slog.Logger
}

// Server is the HTTP server for the byline web UI.
type Server struct {
	config     Config
	httpServer *http.Server
	router     *http.ServeMux
	feeds      *service.FeedService
	logger     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) (*Server, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if config.Port == 0 {
		config.Port = 18080
	}
	if config.Host == "" {
		config.Host = "localhost"
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Discard
	}
	logger = logger.With("component", "server")

	s := &Server{
		config: config,
		router: http.NewServeMux(),
		feeds:  service.NewFeedService(config.DB, config.Byline, logger),
		logger: logger,
	}

	// Set up routes
	s.setupRoutes()

	return s, nil
}

// Handler returns the server's root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.router)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.Address()

	// Create listener to get the actual address (useful if port 0 is used)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	url := fmt.Sprintf("http://%s", listener.Addr().String())
	s.logger.Info("starting server", "url", url)

	if s.config.AutoOpenBrowser {
		go func() {
			// Small delay to ensure server is ready
			time.Sleep(100 * time.Millisecond)
			if err := openBrowser(url); err != nil {
				s.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address (e.g., "localhost:18080").
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// openBrowser opens the default browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
