// ABOUTME: HTTP API handlers and JSON request/response types
// ABOUTME: Agent CRUD, chat, analytics, tickets, and the legacy support surface

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/lyzr/support-gateway/internal/chat"
	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/store"
)

// AgentRequest is the JSON body for POST/PUT /api/agents.
type AgentRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tone          string   `json:"tone"`
	Personality   string   `json:"personality"`
	KnowledgeBase []string `json:"knowledge_base"`
	UserID        string   `json:"user_id"`
}

// AgentResponse is the JSON shape of one agent. The remote identifier keeps
// its historical wire name and stays null until the provider issued one.
type AgentResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tone          string   `json:"tone"`
	Personality   string   `json:"personality"`
	KnowledgeBase []string `json:"knowledge_base"`
	LyzrAgentID   *string  `json:"lyzr_agent_id"`
	UserID        string   `json:"user_id"`
	IsActive      bool     `json:"is_active"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	AgentID     string `json:"agent_id"`
	Message     string `json:"message"`
	UserSession string `json:"user_session"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Response        string  `json:"response"`
	ConfidenceScore float64 `json:"confidence_score"`
	TicketCreated   bool    `json:"ticket_created"`
}

// TicketCreateRequest is the JSON body for POST /api/tickets.
type TicketCreateRequest struct {
	AgentID         string  `json:"agent_id"`
	Question        string  `json:"question"`
	UserSession     string  `json:"user_session"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// TicketUpdateRequest is the JSON body for PUT /api/tickets/{id}.
// ManualResponse is a pointer so an absent field means "leave unchanged".
type TicketUpdateRequest struct {
	Status         string  `json:"status"`
	ManualResponse *string `json:"manual_response"`
}

// TicketResponse is the JSON shape of one ticket.
type TicketResponse struct {
	ID              string  `json:"id"`
	AgentID         string  `json:"agent_id"`
	Question        string  `json:"question"`
	UserSession     string  `json:"user_session"`
	Status          string  `json:"status"`
	ConfidenceScore float64 `json:"confidence_score"`
	ManualResponse  string  `json:"manual_response,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// AnalyticsResponse is the JSON response for GET /api/agents/{id}/analytics.
type AnalyticsResponse struct {
	AgentID            string  `json:"agent_id"`
	TotalConversations int     `json:"total_conversations"`
	AverageConfidence  float64 `json:"average_confidence"`
	TicketsCreated     int     `json:"tickets_created"`
	UserSatisfaction   float64 `json:"user_satisfaction"`
	ResponseTimeAvg    float64 `json:"response_time_avg"`
}

// OverviewResponse is the JSON response for GET /api/analytics/overview.
type OverviewResponse struct {
	TotalAgents       int     `json:"total_agents"`
	TotalChats        int     `json:"total_chats"`
	TotalTickets      int     `json:"total_tickets"`
	OpenTickets       int     `json:"open_tickets"`
	AverageConfidence float64 `json:"average_confidence"`
	ActiveAgents      int     `json:"active_agents"`
}

// SupportCreateRequest is the JSON body for POST /api/support.
type SupportCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// SupportCreateResponse is the JSON response for POST /api/support.
type SupportCreateResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SupportRequestResponse is the JSON shape of one support request.
type SupportRequestResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

// handleAgents handles POST and GET /api/agents.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createAgent(w, r)
	case http.MethodGet:
		s.listAgents(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	req, err := parseAgentRequest(r.Body)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, err := s.registry.Create(r.Context(), agentSpec(req), req.UserID)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, agentResponse(agent))
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.registry.List(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.sendError(w, err)
		return
	}

	response := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		response = append(response, agentResponse(a))
	}
	s.sendJSON(w, http.StatusOK, response)
}

// handleAgentByID handles GET/PUT/DELETE /api/agents/{id} and
// GET /api/agents/{id}/analytics.
func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/agents/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.sendJSONError(w, http.StatusBadRequest, "agent id is required")
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "analytics" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.agentAnalytics(w, r, id)
		return
	}
	if len(parts) > 1 {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		agent, err := s.registry.Get(r.Context(), id)
		if err != nil {
			s.sendError(w, err)
			return
		}
		s.sendJSON(w, http.StatusOK, agentResponse(agent))
	case http.MethodPut:
		req, err := parseAgentRequest(r.Body)
		if err != nil {
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		agent, err := s.registry.Update(r.Context(), id, agentSpec(req))
		if err != nil {
			s.sendError(w, err)
			return
		}
		s.sendJSON(w, http.StatusOK, agentResponse(agent))
	case http.MethodDelete:
		if err := s.registry.Delete(r.Context(), id); err != nil {
			s.sendError(w, err)
			return
		}
		s.sendJSON(w, http.StatusOK, map[string]string{"message": "Agent deleted successfully"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) agentAnalytics(w http.ResponseWriter, r *http.Request, id string) {
	stats, err := s.analytics.AgentAnalytics(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, AnalyticsResponse{
		AgentID:            id,
		TotalConversations: stats.TotalConversations,
		AverageConfidence:  stats.AverageConfidence,
		TicketsCreated:     stats.TicketsCreated,
		UserSatisfaction:   stats.UserSatisfaction,
		ResponseTimeAvg:    stats.ResponseTimeAvg,
	})
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Message == "" || req.UserSession == "" {
		s.sendJSONError(w, http.StatusBadRequest, "agent_id, message, and user_session are required")
		return
	}

	result, err := s.chat.Send(r.Context(), &chat.Request{
		AgentID:     req.AgentID,
		Message:     req.Message,
		UserSession: req.UserSession,
	})
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, ChatResponse{
		Response:        result.Response,
		ConfidenceScore: result.ConfidenceScore,
		TicketCreated:   result.TicketCreated,
	})
}

// handleOverview handles GET /api/analytics/overview.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	overview, err := s.analytics.Overview(r.Context())
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, OverviewResponse{
		TotalAgents:       overview.TotalAgents,
		TotalChats:        overview.TotalChats,
		TotalTickets:      overview.TotalTickets,
		OpenTickets:       overview.OpenTickets,
		AverageConfidence: overview.AverageConfidence,
		ActiveAgents:      overview.ActiveAgents,
	})
}

// handleTickets handles POST and GET /api/tickets.
func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTicket(w, r)
	case http.MethodGet:
		s.listTickets(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Question == "" {
		s.sendJSONError(w, http.StatusBadRequest, "agent_id and question are required")
		return
	}

	now := time.Now()
	ticket := &store.Ticket{
		AgentID:         req.AgentID,
		Question:        req.Question,
		UserSession:     req.UserSession,
		Status:          store.TicketStatusOpen,
		ConfidenceScore: req.ConfidenceScore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateTicket(r.Context(), ticket); err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, ticketResponse(ticket))
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	filter := store.TicketFilter{
		AgentID: r.URL.Query().Get("agent_id"),
		Status:  r.URL.Query().Get("status"),
	}
	if filter.Status != "" && !store.ValidTicketStatus(filter.Status) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid ticket status")
		return
	}

	tickets, err := s.store.ListTickets(r.Context(), filter)
	if err != nil {
		s.sendError(w, err)
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		response = append(response, ticketResponse(t))
	}
	s.sendJSON(w, http.StatusOK, response)
}

// handleTicketByID handles PUT /api/tickets/{id}. The status may come from
// the JSON body or, for older clients, from query parameters.
func (s *Server) handleTicketByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
	if id == "" || strings.Contains(id, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "ticket id is required")
		return
	}

	req, err := parseTicketUpdate(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := s.store.GetTicket(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return
	}

	ticket.Status = req.Status
	if req.ManualResponse != nil {
		ticket.ManualResponse = *req.ManualResponse
	}
	ticket.UpdatedAt = time.Now()

	if err := s.store.UpdateTicket(r.Context(), ticket); err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, ticketResponse(ticket))
}

// handleSupport handles POST and GET /api/support (legacy surface).
func (s *Server) handleSupport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSupportRequest(w, r)
	case http.MethodGet:
		s.listSupportRequests(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createSupportRequest(w http.ResponseWriter, r *http.Request) {
	var req SupportCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Subject == "" || req.Message == "" {
		s.sendJSONError(w, http.StatusBadRequest, "name, email, subject, and message are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if req.Priority == "" {
		req.Priority = store.PriorityMedium
	}
	if !store.ValidPriority(req.Priority) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid priority")
		return
	}

	supportReq := &store.SupportRequest{
		Name:     req.Name,
		Email:    req.Email,
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: req.Priority,
		Status:   store.SupportStatusPending,
	}
	if err := s.store.CreateSupportRequest(r.Context(), supportReq); err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, SupportCreateResponse{
		ID:      supportReq.ID,
		Status:  "success",
		Message: "Support request created successfully",
	})
}

func (s *Server) listSupportRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.store.ListSupportRequests(r.Context())
	if err != nil {
		s.sendError(w, err)
		return
	}

	response := make([]SupportRequestResponse, 0, len(reqs))
	for _, sr := range reqs {
		response = append(response, supportResponse(sr))
	}
	s.sendJSON(w, http.StatusOK, response)
}

// handleSupportByID handles GET /api/support/{id}.
func (s *Server) handleSupportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/support/")
	if id == "" || strings.Contains(id, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "request id is required")
		return
	}

	req, err := s.store.GetSupportRequest(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, supportResponse(req))
}

// parseAgentRequest parses and validates an AgentRequest from the given reader.
func parseAgentRequest(r io.Reader) (*AgentRequest, error) {
	var req AgentRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user_id is required")
	}
	return &req, nil
}

// parseTicketUpdate reads the ticket update from the JSON body, falling back
// to query parameters when no body is present.
func parseTicketUpdate(r *http.Request) (*TicketUpdateRequest, error) {
	var req TicketUpdateRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("reading request body")
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.New("invalid JSON body")
		}
	} else {
		q := r.URL.Query()
		req.Status = q.Get("status")
		if q.Has("manual_response") {
			v := q.Get("manual_response")
			req.ManualResponse = &v
		}
	}

	if req.Status == "" {
		return nil, errors.New("status is required")
	}
	if !store.ValidTicketStatus(req.Status) {
		return nil, errors.New("invalid ticket status")
	}
	return &req, nil
}

func agentSpec(req *AgentRequest) provider.AgentSpec {
	return provider.AgentSpec{
		Name:          req.Name,
		Description:   req.Description,
		Tone:          req.Tone,
		Personality:   req.Personality,
		KnowledgeBase: req.KnowledgeBase,
	}
}

func agentResponse(a *store.Agent) AgentResponse {
	resp := AgentResponse{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		Tone:          a.Tone,
		Personality:   a.Personality,
		KnowledgeBase: a.KnowledgeBase,
		UserID:        a.UserID,
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.RemoteID != "" {
		remoteID := a.RemoteID
		resp.LyzrAgentID = &remoteID
	}
	if resp.KnowledgeBase == nil {
		resp.KnowledgeBase = []string{}
	}
	return resp
}

func ticketResponse(t *store.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		AgentID:         t.AgentID,
		Question:        t.Question,
		UserSession:     t.UserSession,
		Status:          t.Status,
		ConfidenceScore: t.ConfidenceScore,
		ManualResponse:  t.ManualResponse,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func supportResponse(sr *store.SupportRequest) SupportRequestResponse {
	return SupportRequestResponse{
		ID:       sr.ID,
		Name:     sr.Name,
		Email:    sr.Email,
		Subject:  sr.Subject,
		Message:  sr.Message,
		Priority: sr.Priority,
		Status:   sr.Status,
	}
}
