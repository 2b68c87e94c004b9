// ABOUTME: In-memory Store implementation guarded by a RWMutex
// ABOUTME: Default volatile storage; also used by tests that don't need SQLite

package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a volatile in-memory Store implementation. Records live for
// the process lifetime; counters restart at 1 on every boot, so IDs are
// collision-free only within a single process.
type MemoryStore struct {
	mu sync.RWMutex

	agents     map[string]*Agent
	agentOrder []string // insertion order for stable listing

	conversations []*Conversation

	tickets     map[string]*Ticket
	ticketOrder []string

	supportRequests map[string]*SupportRequest
	supportOrder    []string

	nextAgent   int
	nextChat    int
	nextTicket  int
	nextSupport int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:          make(map[string]*Agent),
		tickets:         make(map[string]*Ticket),
		supportRequests: make(map[string]*SupportRequest),
	}
}

// CreateAgent stores a new agent and issues its ID.
func (m *MemoryStore) CreateAgent(ctx context.Context, agent *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAgent++
	agent.ID = fmt.Sprintf("agent_%04d", m.nextAgent)

	a := *agent
	a.KnowledgeBase = append([]string(nil), agent.KnowledgeBase...)
	m.agents[a.ID] = &a
	m.agentOrder = append(m.agentOrder, a.ID)
	return nil
}

// GetAgent retrieves an agent by ID. Returns ErrNotFound if absent.
func (m *MemoryStore) GetAgent(ctx context.Context, id string) (*Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAgent(a), nil
}

// ListAgents returns agents in insertion order, filtered by userID when
// non-empty.
func (m *MemoryStore) ListAgents(ctx context.Context, userID string) ([]*Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agents := make([]*Agent, 0, len(m.agentOrder))
	for _, id := range m.agentOrder {
		a := m.agents[id]
		if userID != "" && a.UserID != userID {
			continue
		}
		agents = append(agents, copyAgent(a))
	}
	return agents, nil
}

// UpdateAgent replaces an existing agent record. Returns ErrNotFound if absent.
func (m *MemoryStore) UpdateAgent(ctx context.Context, agent *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agents[agent.ID]; !ok {
		return ErrNotFound
	}
	a := *agent
	a.KnowledgeBase = append([]string(nil), agent.KnowledgeBase...)
	m.agents[a.ID] = &a
	return nil
}

// DeleteAgent removes an agent. Conversations and tickets referencing it are
// left untouched. Returns ErrNotFound if absent.
func (m *MemoryStore) DeleteAgent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agents[id]; !ok {
		return ErrNotFound
	}
	delete(m.agents, id)
	for i, aid := range m.agentOrder {
		if aid == id {
			m.agentOrder = append(m.agentOrder[:i], m.agentOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SaveConversation appends a conversation record and issues its ID.
func (m *MemoryStore) SaveConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextChat++
	conv.ID = fmt.Sprintf("chat_%04d", m.nextChat)

	c := *conv
	m.conversations = append(m.conversations, &c)
	return nil
}

// ListConversations returns conversations in append order, filtered by
// agentID when non-empty. A limit of 0 or less means no limit.
func (m *MemoryStore) ListConversations(ctx context.Context, agentID string, limit int) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var convs []*Conversation
	for _, c := range m.conversations {
		if agentID != "" && c.AgentID != agentID {
			continue
		}
		result := *c
		convs = append(convs, &result)
		if limit > 0 && len(convs) >= limit {
			break
		}
	}
	return convs, nil
}

// CreateTicket stores a new ticket and issues its ID.
func (m *MemoryStore) CreateTicket(ctx context.Context, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTicket++
	ticket.ID = fmt.Sprintf("ticket_%04d", m.nextTicket)

	t := *ticket
	m.tickets[t.ID] = &t
	m.ticketOrder = append(m.ticketOrder, t.ID)
	return nil
}

// GetTicket retrieves a ticket by ID. Returns ErrNotFound if absent.
func (m *MemoryStore) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *t
	return &result, nil
}

// ListTickets returns tickets in insertion order matching the filter.
func (m *MemoryStore) ListTickets(ctx context.Context, filter TicketFilter) ([]*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tickets := make([]*Ticket, 0, len(m.ticketOrder))
	for _, id := range m.ticketOrder {
		t := m.tickets[id]
		if filter.AgentID != "" && t.AgentID != filter.AgentID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result := *t
		tickets = append(tickets, &result)
	}
	return tickets, nil
}

// UpdateTicket replaces an existing ticket record. Returns ErrNotFound if absent.
func (m *MemoryStore) UpdateTicket(ctx context.Context, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	t := *ticket
	m.tickets[t.ID] = &t
	return nil
}

// CreateSupportRequest stores a new support request and issues its ID.
func (m *MemoryStore) CreateSupportRequest(ctx context.Context, req *SupportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSupport++
	req.ID = fmt.Sprintf("SR-%04d", m.nextSupport)

	r := *req
	m.supportRequests[r.ID] = &r
	m.supportOrder = append(m.supportOrder, r.ID)
	return nil
}

// GetSupportRequest retrieves a support request by ID. Returns ErrNotFound if absent.
func (m *MemoryStore) GetSupportRequest(ctx context.Context, id string) (*SupportRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.supportRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *r
	return &result, nil
}

// ListSupportRequests returns all support requests in insertion order.
func (m *MemoryStore) ListSupportRequests(ctx context.Context) ([]*SupportRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reqs := make([]*SupportRequest, 0, len(m.supportOrder))
	for _, id := range m.supportOrder {
		result := *m.supportRequests[id]
		reqs = append(reqs, &result)
	}
	return reqs, nil
}

// Overview computes aggregate counts over all stored records.
func (m *MemoryStore) Overview(ctx context.Context) (*Overview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o := &Overview{
		TotalAgents:        len(m.agents),
		TotalConversations: len(m.conversations),
		TotalTickets:       len(m.tickets),
	}
	for _, a := range m.agents {
		if a.IsActive {
			o.ActiveAgents++
		}
	}
	for _, t := range m.tickets {
		if t.Status == TicketStatusOpen {
			o.OpenTickets++
		}
	}
	if len(m.conversations) > 0 {
		var sum float64
		for _, c := range m.conversations {
			sum += c.ConfidenceScore
		}
		o.AverageConfidence = sum / float64(len(m.conversations))
	}
	return o, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyAgent(a *Agent) *Agent {
	result := *a
	result.KnowledgeBase = append([]string(nil), a.KnowledgeBase...)
	return &result
}
