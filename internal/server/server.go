// ABOUTME: HTTP server assembly for support-gateway
// ABOUTME: Wires the registry, chat, ticket, analytics, and legacy support routes onto a mux

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lyzr/support-gateway/internal/analytics"
	"github.com/lyzr/support-gateway/internal/chat"
	"github.com/lyzr/support-gateway/internal/config"
	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/registry"
	"github.com/lyzr/support-gateway/internal/store"
)

// Server holds the services behind the HTTP API.
type Server struct {
	registry  *registry.Service
	chat      *chat.Service
	analytics *analytics.Service
	store     store.Store
	logger    *slog.Logger
	cors      []string
	version   string
}

// New creates a Server over the given services.
func New(cfg *config.Config, st store.Store, reg *registry.Service, chatSvc *chat.Service, analyticsSvc *analytics.Service, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry:  reg,
		chat:      chatSvc,
		analytics: analyticsSvc,
		store:     st,
		logger:    logger.With("component", "http"),
		cors:      cfg.CORS.AllowedOrigins,
		version:   version,
	}
}

// Handler builds the route table. All routes are JSON in, JSON out.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/api/agents", s.handleAgents)
	mux.HandleFunc("/api/agents/", s.handleAgentByID)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/analytics/overview", s.handleOverview)
	mux.HandleFunc("/api/tickets", s.handleTickets)
	mux.HandleFunc("/api/tickets/", s.handleTicketByID)
	mux.HandleFunc("/api/support", s.handleSupport)
	mux.HandleFunc("/api/support/", s.handleSupportByID)

	var handler http.Handler = mux
	handler = s.requestLog(handler)
	handler = corsMiddleware(s.cors)(handler)
	return handler
}

// sendJSON writes a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendError maps a service error onto the HTTP surface. Provider errors
// propagate the upstream status code and body; everything unrecognized is a
// logged 500.
func (s *Server) sendError(w http.ResponseWriter, err error) {
	var provErr *provider.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrAgentInactive):
		s.sendJSONError(w, http.StatusBadRequest, "agent is not active")
	case errors.As(err, &provErr):
		s.sendJSONError(w, provErr.StatusCode, "provider error: "+provErr.Body)
	case errors.Is(err, provider.ErrUnavailable):
		s.sendJSONError(w, http.StatusBadGateway, "provider unavailable")
	default:
		s.logger.Error("request failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{
		"message": "Lyzr Support API is running",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "support-gateway",
		"version": s.version,
	})
}
