// ABOUTME: Tests for the SQLite Store implementation
// ABOUTME: Mirrors the memory store contract against a real database file

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_AgentRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	agent := newTestAgent("sql-agent", "user-1")
	require.NoError(t, s.CreateAgent(ctx, agent))
	assert.Equal(t, "agent_0001", agent.ID)

	got, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "sql-agent", got.Name)
	assert.Equal(t, []string{"doc-1", "doc-2"}, got.KnowledgeBase)
	assert.Equal(t, "lyzr_agent_0042", got.RemoteID)
	assert.True(t, got.IsActive)

	_, err = s.GetAgent(ctx, "agent_9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_CounterSurvivesDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := newTestAgent("first", "user-1")
	require.NoError(t, s.CreateAgent(ctx, first))
	require.NoError(t, s.DeleteAgent(ctx, first.ID))

	// Counter keeps advancing; IDs are never reused
	second := newTestAgent("second", "user-1")
	require.NoError(t, s.CreateAgent(ctx, second))
	assert.Equal(t, "agent_0002", second.ID)
}

func TestSQLiteStore_UpdateAgent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	agent := newTestAgent("before", "user-1")
	require.NoError(t, s.CreateAgent(ctx, agent))

	agent.Name = "after"
	agent.IsActive = false
	agent.KnowledgeBase = []string{"doc-3"}
	require.NoError(t, s.UpdateAgent(ctx, agent))

	got, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, []string{"doc-3"}, got.KnowledgeBase)

	ghost := newTestAgent("ghost", "user-1")
	ghost.ID = "agent_9999"
	assert.ErrorIs(t, s.UpdateAgent(ctx, ghost), ErrNotFound)
}

func TestSQLiteStore_ListAgents_FiltersByUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAgent(ctx, newTestAgent("a", "user-1")))
	require.NoError(t, s.CreateAgent(ctx, newTestAgent("b", "user-2")))

	mine, err := s.ListAgents(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a", mine[0].Name)

	all, err := s.ListAgents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStore_ConversationsAndTickets(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	now := time.Now()

	conv := &Conversation{
		AgentID:         "agent_0001",
		UserSession:     "sess-1",
		Message:         "help",
		Response:        "sure",
		ConfidenceScore: 0.42,
		CreatedAt:       now,
	}
	require.NoError(t, s.SaveConversation(ctx, conv))
	assert.Equal(t, "chat_0001", conv.ID)

	convs, err := s.ListConversations(ctx, "agent_0001", 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.InDelta(t, 0.42, convs[0].ConfidenceScore, 1e-9)

	ticket := &Ticket{
		AgentID:         "agent_0001",
		Question:        "help",
		UserSession:     "sess-1",
		Status:          TicketStatusOpen,
		ConfidenceScore: 0.42,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.CreateTicket(ctx, ticket))
	assert.Equal(t, "ticket_0001", ticket.ID)

	ticket.Status = TicketStatusResolved
	ticket.ManualResponse = "fixed it"
	ticket.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateTicket(ctx, ticket))

	got, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, TicketStatusResolved, got.Status)
	assert.Equal(t, "fixed it", got.ManualResponse)

	open, err := s.ListTickets(ctx, TicketFilter{Status: TicketStatusOpen})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSQLiteStore_SupportRequests(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	req := &SupportRequest{
		Name:     "Sam",
		Email:    "sam@example.com",
		Subject:  "login",
		Message:  "cannot log in",
		Priority: PriorityUrgent,
		Status:   SupportStatusPending,
	}
	require.NoError(t, s.CreateSupportRequest(ctx, req))
	assert.Equal(t, "SR-0001", req.ID)

	got, err := s.GetSupportRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, got.Priority)
}

func TestSQLiteStore_Overview(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	now := time.Now()

	o, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, o.TotalAgents)
	assert.Equal(t, 0.0, o.AverageConfidence)

	agent := newTestAgent("stats", "user-1")
	require.NoError(t, s.CreateAgent(ctx, agent))
	require.NoError(t, s.SaveConversation(ctx, &Conversation{AgentID: agent.ID, ConfidenceScore: 0.8, CreatedAt: now}))
	require.NoError(t, s.SaveConversation(ctx, &Conversation{AgentID: agent.ID, ConfidenceScore: 0.6, CreatedAt: now}))
	require.NoError(t, s.CreateTicket(ctx, &Ticket{AgentID: agent.ID, Status: TicketStatusOpen, CreatedAt: now, UpdatedAt: now}))

	o, err = s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, o.TotalAgents)
	assert.Equal(t, 1, o.ActiveAgents)
	assert.Equal(t, 2, o.TotalConversations)
	assert.Equal(t, 1, o.OpenTickets)
	assert.InDelta(t, 0.7, o.AverageConfidence, 1e-9)
}
