package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	// API routes
	s.router.HandleFunc("GET /api/feeds", s.handleListFeeds)
	s.router.HandleFunc("POST /api/feeds", s.handleCreateFeed)
	s.router.HandleFunc("GET /api/feeds/{key}", s.handleGetFeed)
	s.router.HandleFunc("DELETE /api/feeds/{key}", s.handleDeleteFeed)

	s.router.HandleFunc("GET /api/feeds/{key}/entries", s.handleListEntries)
	s.router.HandleFunc("POST /api/feeds/{key}/entries", s.handleCreateEntry)

	s.router.HandleFunc("GET /api/entries/{key}", s.handleGetEntry)
	s.router.HandleFunc("GET /api/recent", s.handleRecent)

	// Health check
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	// Static files (embedded frontend)
	// Use catch-all pattern for SPA routing (Go 1.22+ requires explicit wildcard)
	s.router.HandleFunc("GET /{path...}", s.handleStatic)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
