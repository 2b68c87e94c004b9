// ABOUTME: Store interface and data types for support-gateway persistence
// ABOUTME: Defines Agent, Conversation, Ticket, SupportRequest and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Ticket status values. The orchestrator only ever writes TicketStatusOpen;
// the rest are reachable through manual ticket updates.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Support request status values (legacy surface).
const (
	SupportStatusPending    = "pending"
	SupportStatusInProgress = "in_progress"
	SupportStatusResolved   = "resolved"
	SupportStatusClosed     = "closed"
)

// Support request priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Agent represents a locally registered support agent and its mapping to the
// provider-side agent. RemoteID is empty until the provider create succeeds.
type Agent struct {
	ID            string
	Name          string
	Description   string
	Tone          string
	Personality   string
	KnowledgeBase []string
	RemoteID      string
	UserID        string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Conversation represents one logged chat exchange with an agent.
// AgentID is not enforced as a foreign key: conversations are independent
// historical records and outlive their agent.
type Conversation struct {
	ID              string
	AgentID         string
	UserSession     string
	Message         string
	Response        string
	ConfidenceScore float64
	CreatedAt       time.Time
}

// Ticket represents an escalated question awaiting a human response.
// Like conversations, tickets outlive their agent.
type Ticket struct {
	ID              string
	AgentID         string
	Question        string
	UserSession     string
	Status          string
	ConfidenceScore float64
	ManualResponse  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SupportRequest is the legacy contact-form record, unrelated to agents.
type SupportRequest struct {
	ID       string
	Name     string
	Email    string
	Subject  string
	Message  string
	Priority string
	Status   string
}

// TicketFilter narrows ListTickets results. Empty fields match everything;
// set fields combine with AND semantics.
type TicketFilter struct {
	AgentID string
	Status  string
}

// Overview holds the raw aggregate counts the analytics layer reports.
// AverageConfidence is the unrounded mean over all conversations, 0 when
// no conversations exist.
type Overview struct {
	TotalAgents        int
	ActiveAgents       int
	TotalConversations int
	TotalTickets       int
	OpenTickets        int
	AverageConfidence  float64
}

// Store defines the interface for agent, conversation, ticket, and support
// request persistence. Implementations issue entity IDs from their own
// monotonic counters (prefixed, zero-padded: agent_0001, chat_0001,
// ticket_0001, SR-0001) and must serialize their own mutations.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, agent *Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListAgents(ctx context.Context, userID string) ([]*Agent, error)
	UpdateAgent(ctx context.Context, agent *Agent) error
	DeleteAgent(ctx context.Context, id string) error

	// Conversations (append-only chat log)
	SaveConversation(ctx context.Context, conv *Conversation) error
	ListConversations(ctx context.Context, agentID string, limit int) ([]*Conversation, error)

	// Tickets
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]*Ticket, error)
	UpdateTicket(ctx context.Context, ticket *Ticket) error

	// Support requests (legacy)
	CreateSupportRequest(ctx context.Context, req *SupportRequest) error
	GetSupportRequest(ctx context.Context, id string) (*SupportRequest, error)
	ListSupportRequests(ctx context.Context) ([]*SupportRequest, error)

	// Overview returns aggregate counts across all stores.
	Overview(ctx context.Context) (*Overview, error)

	// Close releases any resources held by the store
	Close() error
}

// ValidTicketStatus reports whether s is a member of the ticket status enum.
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a member of the priority enum.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
