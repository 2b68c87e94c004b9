// ABOUTME: Tests for the deterministic mock provider backend

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_CreateAgent_Deterministic(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	first, err := m.CreateAgent(ctx, AgentSpec{Name: "billing-bot"})
	require.NoError(t, err)
	second, err := m.CreateAgent(ctx, AgentSpec{Name: "billing-bot"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same name must yield the same mock id")
	assert.Regexp(t, `^lyzr_agent_\d{4}$`, first)

	other, err := m.CreateAgent(ctx, AgentSpec{Name: "sales-bot"})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMock_Chat(t *testing.T) {
	m := NewMock()

	result, err := m.Chat(context.Background(), "lyzr_agent_0001", "help")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "help")
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestMock_Chat_ClampsConfiguredConfidence(t *testing.T) {
	m := &Mock{Confidence: 3.5}

	result, err := m.Chat(context.Background(), "lyzr_agent_0001", "hi")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestMock_GetAnalytics(t *testing.T) {
	m := NewMock()

	stats, err := m.GetAnalytics(context.Background(), "lyzr_agent_0001")
	require.NoError(t, err)
	assert.Equal(t, 150, stats.TotalConversations)
	assert.InDelta(t, 0.82, stats.AverageConfidence, 1e-9)
	assert.Equal(t, 12, stats.TicketsCreated)
}

func TestMock_UpdateAndDelete(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	id, err := m.UpdateAgent(ctx, "lyzr_agent_0007", AgentSpec{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "lyzr_agent_0007", id)

	require.NoError(t, m.DeleteAgent(ctx, "lyzr_agent_0007"))
}
