// ABOUTME: Conversation orchestrator - the central chat/escalation flow
// ABOUTME: Lookup agent, dispatch to provider, log the exchange, escalate low confidence

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/store"
)

// ErrAgentInactive is returned when the target agent exists but is disabled.
var ErrAgentInactive = errors.New("agent is not active")

// EscalationThreshold is the confidence score below which a chat answer is
// escalated to a human ticket. Fixed for all agents.
const EscalationThreshold = 0.7

// Store defines what the orchestrator needs from storage.
type Store interface {
	GetAgent(ctx context.Context, id string) (*store.Agent, error)
	SaveConversation(ctx context.Context, conv *store.Conversation) error
	CreateTicket(ctx context.Context, ticket *store.Ticket) error
}

// Service orchestrates one chat request end to end. It holds no per-request
// state beyond the conversation log.
type Service struct {
	store    Store
	provider provider.Backend
	logger   *slog.Logger
}

// New creates a chat Service.
func New(s Store, backend provider.Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		provider: backend,
		logger:   logger.With("component", "chat"),
	}
}

// Request is one inbound chat message.
type Request struct {
	AgentID     string
	Message     string
	UserSession string
}

// Result is the unified chat response.
type Result struct {
	Response        string
	ConfidenceScore float64
	TicketCreated   bool
}

// Send runs the chat state machine in a single pass:
//
//  1. Lookup: resolve the agent. store.ErrNotFound or ErrAgentInactive are
//     terminal with no side effects.
//  2. Dispatch: call the provider. Any failure aborts the whole request -
//     nothing is logged, no ticket is created.
//  3. Log: append the conversation record.
//  4. Escalate: below EscalationThreshold, open a ticket carrying the
//     original message as the question and the same confidence score.
//  5. Respond.
//
// The conversation is logged before the threshold check so the record exists
// even when escalation triggers; ticket and conversation are siblings, the
// ticket never references the conversation record.
func (s *Service) Send(ctx context.Context, req *Request) (*Result, error) {
	agent, err := s.store.GetAgent(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("looking up agent %s: %w", req.AgentID, err)
	}
	if !agent.IsActive {
		return nil, ErrAgentInactive
	}

	// The provider may never have issued an identifier; fall back to the
	// local one rather than refusing the call outright.
	remoteID := agent.RemoteID
	if remoteID == "" {
		remoteID = agent.ID
	}

	chatResult, err := s.provider.Chat(ctx, remoteID, req.Message)
	if err != nil {
		return nil, fmt.Errorf("provider chat failed: %w", err)
	}

	now := time.Now()
	conv := &store.Conversation{
		AgentID:         agent.ID,
		UserSession:     req.UserSession,
		Message:         req.Message,
		Response:        chatResult.Response,
		ConfidenceScore: chatResult.Confidence,
		CreatedAt:       now,
	}
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("saving conversation: %w", err)
	}

	s.logger.Debug("conversation logged",
		"conversation_id", conv.ID,
		"agent_id", agent.ID,
		"confidence", chatResult.Confidence)

	ticketCreated := false
	if chatResult.Confidence < EscalationThreshold {
		ticket := &store.Ticket{
			AgentID:         agent.ID,
			Question:        req.Message,
			UserSession:     req.UserSession,
			Status:          store.TicketStatusOpen,
			ConfidenceScore: chatResult.Confidence,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.CreateTicket(ctx, ticket); err != nil {
			return nil, fmt.Errorf("creating escalation ticket: %w", err)
		}
		ticketCreated = true

		s.logger.Info("low confidence answer escalated",
			"ticket_id", ticket.ID,
			"agent_id", agent.ID,
			"confidence", chatResult.Confidence)
	}

	return &Result{
		Response:        chatResult.Response,
		ConfidenceScore: chatResult.Confidence,
		TicketCreated:   ticketCreated,
	}, nil
}
